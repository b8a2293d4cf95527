package mutate

import (
	"strings"

	"churchplan/internal/model"
	"churchplan/internal/timeline"
)

// AddStep appends a new empty step. id may be empty to generate one.
func AddStep(tl model.Timeline, anchorMinutes int, id, title string) (Result, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Result{}, ErrEmptyTitle
	}
	id, err := resolveID(tl, "step", id)
	if err != nil {
		return Result{}, err
	}
	next := tl.Clone()
	next.Steps = append(next.Steps, model.Step{ID: id, Title: title, Order: len(next.Steps), Items: []model.Item{}})
	return commit(tl, next, anchorMinutes), nil
}

func RenameStep(tl model.Timeline, anchorMinutes int, stepID, title string) (Result, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Result{}, ErrEmptyTitle
	}
	si := tl.StepIndex(stepID)
	if si < 0 {
		return Result{}, NotFoundError{Kind: "step", ID: stepID}
	}
	next := tl.Clone()
	next.Steps[si].Title = title
	return commit(tl, next, anchorMinutes), nil
}

// DeleteStep removes a step and, with it, all of its items.
func DeleteStep(tl model.Timeline, anchorMinutes int, stepID string) (Result, error) {
	si := tl.StepIndex(stepID)
	if si < 0 {
		return Result{}, NotFoundError{Kind: "step", ID: stepID}
	}
	next := tl.Clone()
	next.Steps = append(next.Steps[:si], next.Steps[si+1:]...)
	return commit(tl, next, anchorMinutes), nil
}

// MoveStep swaps a step with its neighbor; at the ends it is a no-op (Changed=false).
func MoveStep(tl model.Timeline, anchorMinutes int, stepID string, dir timeline.Direction) (Result, error) {
	si := tl.StepIndex(stepID)
	if si < 0 {
		return Result{}, NotFoundError{Kind: "step", ID: stepID}
	}
	return commit(tl, timeline.MoveStep(tl, si, dir), anchorMinutes), nil
}
