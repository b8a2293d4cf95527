// Package timeline holds the pure transforms over a running-order snapshot. Nothing here
// touches storage; callers diff the result to get upserts.
//
// Every function takes a model.Timeline value and returns a new one; inputs are never
// modified.
package timeline

import (
	"fmt"
	"sort"

	"churchplan/internal/model"
)

// Normalize re-establishes the structural invariants: steps and items sorted by their
// order field (slice position breaks ties), orders renumbered densely from 0, and
// negative durations clamped to 0.
func Normalize(tl model.Timeline) model.Timeline {
	out := tl.Clone()
	sort.SliceStable(out.Steps, func(i, j int) bool {
		return out.Steps[i].Order < out.Steps[j].Order
	})
	for i := range out.Steps {
		items := out.Steps[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].Order < items[b].Order
		})
		for j := range items {
			if items[j].DurationMinutes < 0 {
				items[j].DurationMinutes = 0
			}
		}
	}
	renumber(&out)
	return out
}

// renumber assigns dense orders from slice position. It mutates t in place and is only
// used on clones.
func renumber(t *model.Timeline) {
	for i := range t.Steps {
		t.Steps[i].Order = i
		if t.Steps[i].Items == nil {
			t.Steps[i].Items = []model.Item{}
		}
		for j := range t.Steps[i].Items {
			t.Steps[i].Items[j].Order = j
			if t.Steps[i].Items[j].Participants == nil {
				t.Steps[i].Items[j].Participants = []string{}
			}
		}
	}
}

// Validate reports the first broken structural invariant, or nil.
func Validate(tl model.Timeline) error {
	stepIDs := map[string]bool{}
	itemOwner := map[string]string{}
	for i, s := range tl.Steps {
		if s.ID == "" {
			return fmt.Errorf("step at index %d has no id", i)
		}
		if stepIDs[s.ID] {
			return fmt.Errorf("duplicate step id %s", s.ID)
		}
		stepIDs[s.ID] = true
		if s.Order != i {
			return fmt.Errorf("step %s has order %d at index %d", s.ID, s.Order, i)
		}
		for j, it := range s.Items {
			if it.ID == "" {
				return fmt.Errorf("item at %s[%d] has no id", s.ID, j)
			}
			if owner, ok := itemOwner[it.ID]; ok {
				return fmt.Errorf("item %s belongs to both %s and %s", it.ID, owner, s.ID)
			}
			itemOwner[it.ID] = s.ID
			if it.Order != j {
				return fmt.Errorf("item %s has order %d at index %d", it.ID, it.Order, j)
			}
			if it.DurationMinutes < 0 {
				return fmt.Errorf("item %s has negative duration %d", it.ID, it.DurationMinutes)
			}
		}
	}
	return nil
}
