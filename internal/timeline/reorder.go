package timeline

import (
	"fmt"
	"strings"

	"churchplan/internal/model"
)

type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u", "-1":
		return Up, nil
	case "down", "d", "1", "+1":
		return Down, nil
	default:
		return 0, fmt.Errorf("invalid direction %q (expected up|down)", s)
	}
}

// All reorder operations below treat out-of-range input as a no-op and return the
// (renumbered) input unchanged. Callers must Propagate the result before use.

// MoveItem moves the item at itemIndex of stepID one slot in dir. When the neighbor
// would fall outside the step, the item crosses into the adjacent step instead.
func MoveItem(tl model.Timeline, stepID string, itemIndex int, dir Direction) model.Timeline {
	si := tl.StepIndex(stepID)
	if si < 0 || itemIndex < 0 || itemIndex >= len(tl.Steps[si].Items) {
		return Normalize(tl)
	}
	target := itemIndex + int(dir)
	if target < 0 || target >= len(tl.Steps[si].Items) {
		return MoveItemAcrossStepBoundary(tl, si, itemIndex, dir)
	}
	out := tl.Clone()
	items := out.Steps[si].Items
	items[itemIndex], items[target] = items[target], items[itemIndex]
	renumber(&out)
	return out
}

// MoveItemAcrossStepBoundary moves the first item of a step Up to the end of the
// previous step, or the last item Down to the start of the next step. Any other
// position, or a missing neighbor step, is a no-op.
func MoveItemAcrossStepBoundary(tl model.Timeline, stepIndex, itemIndex int, dir Direction) model.Timeline {
	if stepIndex < 0 || stepIndex >= len(tl.Steps) {
		return Normalize(tl)
	}
	n := len(tl.Steps[stepIndex].Items)
	switch {
	case dir == Up && itemIndex == 0 && n > 0 && stepIndex > 0:
		out, it, ok := RemoveItem(tl, stepIndex, itemIndex)
		if !ok {
			return Normalize(tl)
		}
		return AppendItem(out, stepIndex-1, it)
	case dir == Down && itemIndex == n-1 && n > 0 && stepIndex+1 < len(tl.Steps):
		out, it, ok := RemoveItem(tl, stepIndex, itemIndex)
		if !ok {
			return Normalize(tl)
		}
		return PrependItem(out, stepIndex+1, it)
	default:
		return Normalize(tl)
	}
}

// RemoveItem detaches the item at (stepIndex, itemIndex) and returns it. The step stays,
// possibly empty.
func RemoveItem(tl model.Timeline, stepIndex, itemIndex int) (model.Timeline, model.Item, bool) {
	if stepIndex < 0 || stepIndex >= len(tl.Steps) {
		return Normalize(tl), model.Item{}, false
	}
	if itemIndex < 0 || itemIndex >= len(tl.Steps[stepIndex].Items) {
		return Normalize(tl), model.Item{}, false
	}
	out := tl.Clone()
	items := out.Steps[stepIndex].Items
	it := items[itemIndex]
	out.Steps[stepIndex].Items = append(items[:itemIndex:itemIndex], items[itemIndex+1:]...)
	renumber(&out)
	return out, it, true
}

// InsertItem places it at position at within the step, clamping at to the list bounds.
func InsertItem(tl model.Timeline, stepIndex, at int, it model.Item) model.Timeline {
	if stepIndex < 0 || stepIndex >= len(tl.Steps) {
		return Normalize(tl)
	}
	out := tl.Clone()
	items := out.Steps[stepIndex].Items
	if at < 0 {
		at = 0
	}
	if at > len(items) {
		at = len(items)
	}
	next := make([]model.Item, 0, len(items)+1)
	next = append(next, items[:at]...)
	next = append(next, it)
	next = append(next, items[at:]...)
	out.Steps[stepIndex].Items = next
	renumber(&out)
	return out
}

func AppendItem(tl model.Timeline, stepIndex int, it model.Item) model.Timeline {
	if stepIndex < 0 || stepIndex >= len(tl.Steps) {
		return Normalize(tl)
	}
	return InsertItem(tl, stepIndex, len(tl.Steps[stepIndex].Items), it)
}

func PrependItem(tl model.Timeline, stepIndex int, it model.Item) model.Timeline {
	return InsertItem(tl, stepIndex, 0, it)
}

// MoveStep swaps the step at stepIndex with its neighbor in dir, items included.
func MoveStep(tl model.Timeline, stepIndex int, dir Direction) model.Timeline {
	target := stepIndex + int(dir)
	if stepIndex < 0 || stepIndex >= len(tl.Steps) || target < 0 || target >= len(tl.Steps) {
		return Normalize(tl)
	}
	out := tl.Clone()
	out.Steps[stepIndex], out.Steps[target] = out.Steps[target], out.Steps[stepIndex]
	renumber(&out)
	return out
}

// ReinsertItems replaces the item order of stepID with orderedIDs, which must be a
// permutation of the step's current item ids. Anything else is a no-op.
func ReinsertItems(tl model.Timeline, stepID string, orderedIDs []string) model.Timeline {
	si := tl.StepIndex(stepID)
	if si < 0 || len(orderedIDs) != len(tl.Steps[si].Items) {
		return Normalize(tl)
	}
	out := tl.Clone()
	byID := make(map[string]model.Item, len(orderedIDs))
	for _, it := range out.Steps[si].Items {
		byID[it.ID] = it
	}
	next := make([]model.Item, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		id = strings.TrimSpace(id)
		it, ok := byID[id]
		if !ok {
			return Normalize(tl)
		}
		delete(byID, id)
		next = append(next, it)
	}
	out.Steps[si].Items = next
	renumber(&out)
	return out
}
