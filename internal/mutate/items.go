package mutate

import (
	"strings"

	"churchplan/internal/model"
	"churchplan/internal/timecode"
	"churchplan/internal/timeline"
)

// ItemInput describes a new item. At is the insert position within the step; nil appends.
type ItemInput struct {
	ID              string
	Title           string
	Subtitle        string
	ExplicitTime    string
	DurationMinutes int
	Participants    []string
	At              *int
}

func AddItem(tl model.Timeline, anchorMinutes int, stepID string, in ItemInput) (Result, error) {
	si := tl.StepIndex(stepID)
	if si < 0 {
		return Result{}, NotFoundError{Kind: "step", ID: stepID}
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Result{}, ErrEmptyTitle
	}
	if in.DurationMinutes < 0 {
		return Result{}, ErrNegativeDuration
	}
	explicit, err := timecode.Normalize(in.ExplicitTime)
	if err != nil {
		return Result{}, InvalidTimeError{Value: in.ExplicitTime}
	}
	id, err := resolveID(tl, "item", in.ID)
	if err != nil {
		return Result{}, err
	}

	it := model.Item{
		ID:              id,
		Title:           title,
		Subtitle:        strings.TrimSpace(in.Subtitle),
		ExplicitTime:    explicit,
		DurationMinutes: in.DurationMinutes,
		Participants:    cleanParticipants(in.Participants),
	}
	at := len(tl.Steps[si].Items)
	if in.At != nil {
		at = *in.At
	}
	return commit(tl, timeline.InsertItem(tl, si, at, it), anchorMinutes), nil
}

// EditItem applies a sparse field patch. InferredTime in the patch is ignored; it is
// always recomputed. Setting ExplicitTime to "" removes the pin.
func EditItem(tl model.Timeline, anchorMinutes int, itemID string, f model.ItemFields) (Result, error) {
	si, ii := tl.ItemIndex(itemID)
	if si < 0 {
		return Result{}, NotFoundError{Kind: "item", ID: itemID}
	}
	f.InferredTime = nil
	if f.Title != nil {
		t := strings.TrimSpace(*f.Title)
		if t == "" {
			return Result{}, ErrEmptyTitle
		}
		f.Title = &t
	}
	if f.Subtitle != nil {
		s := strings.TrimSpace(*f.Subtitle)
		f.Subtitle = &s
	}
	if f.ExplicitTime != nil {
		e, err := timecode.Normalize(*f.ExplicitTime)
		if err != nil {
			return Result{}, InvalidTimeError{ItemID: itemID, Value: *f.ExplicitTime}
		}
		f.ExplicitTime = &e
	}
	if f.DurationMinutes != nil && *f.DurationMinutes < 0 {
		return Result{}, ErrNegativeDuration
	}
	if f.Participants != nil {
		ps := cleanParticipants(*f.Participants)
		f.Participants = &ps
	}

	next := tl.Clone()
	f.ApplyTo(&next.Steps[si].Items[ii])
	return commit(tl, next, anchorMinutes), nil
}

func DeleteItem(tl model.Timeline, anchorMinutes int, itemID string) (Result, error) {
	si, ii := tl.ItemIndex(itemID)
	if si < 0 {
		return Result{}, NotFoundError{Kind: "item", ID: itemID}
	}
	next, _, _ := timeline.RemoveItem(tl, si, ii)
	return commit(tl, next, anchorMinutes), nil
}

// MoveItem moves an item one slot up or down, crossing into the neighboring step at the
// edges. Moving past the very first or last position is a no-op (Changed=false).
func MoveItem(tl model.Timeline, anchorMinutes int, itemID string, dir timeline.Direction) (Result, error) {
	si, ii := tl.ItemIndex(itemID)
	if si < 0 {
		return Result{}, NotFoundError{Kind: "item", ID: itemID}
	}
	return commit(tl, timeline.MoveItem(tl, tl.Steps[si].ID, ii, dir), anchorMinutes), nil
}

// ReorderItems replaces a step's item order (drag-and-drop). A list that is not a
// permutation of the step's items is ignored.
func ReorderItems(tl model.Timeline, anchorMinutes int, stepID string, orderedIDs []string) (Result, error) {
	if tl.StepIndex(stepID) < 0 {
		return Result{}, NotFoundError{Kind: "step", ID: stepID}
	}
	return commit(tl, timeline.ReinsertItems(tl, stepID, orderedIDs), anchorMinutes), nil
}

func cleanParticipants(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
