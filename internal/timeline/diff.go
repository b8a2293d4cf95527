package timeline

import (
	"slices"

	"churchplan/internal/model"
)

// Diff returns the upserts that bring a store holding prev up to next, stamped with
// next.Revision. Output order: creations, step orders, item placements, content
// changes, deletions (items before steps).
func Diff(prev, next model.Timeline) []model.Upsert {
	stamp := func(u model.Upsert) model.Upsert {
		u.Revision = next.Revision
		u.EventID = next.EventID
		return u
	}

	type itemLoc struct {
		stepID string
		item   model.Item
	}
	prevSteps := map[string]model.Step{}
	prevItems := map[string]itemLoc{}
	for _, s := range prev.Steps {
		prevSteps[s.ID] = s
		for _, it := range s.Items {
			prevItems[it.ID] = itemLoc{stepID: s.ID, item: it}
		}
	}

	var creates, orders, places, contents, deletes []model.Upsert
	seenSteps := map[string]bool{}
	seenItems := map[string]bool{}

	for _, s := range next.Steps {
		seenSteps[s.ID] = true
		old, existed := prevSteps[s.ID]
		switch {
		case !existed:
			title := s.Title
			creates = append(creates, stamp(model.Upsert{Kind: model.UpsertStepCreate, StepID: s.ID, Order: s.Order, Title: &title}))
		default:
			if old.Order != s.Order {
				orders = append(orders, stamp(model.Upsert{Kind: model.UpsertStepOrder, StepID: s.ID, Order: s.Order}))
			}
			if old.Title != s.Title {
				title := s.Title
				contents = append(contents, stamp(model.Upsert{Kind: model.UpsertStepTitle, StepID: s.ID, Order: s.Order, Title: &title}))
			}
		}
	}

	for _, s := range next.Steps {
		for _, it := range s.Items {
			seenItems[it.ID] = true
			old, existed := prevItems[it.ID]
			if !existed {
				f := FullFields(it)
				creates = append(creates, stamp(model.Upsert{Kind: model.UpsertItemCreate, ItemID: it.ID, StepID: s.ID, Order: it.Order, Fields: &f}))
				continue
			}
			if old.stepID != s.ID || old.item.Order != it.Order {
				places = append(places, stamp(model.Upsert{Kind: model.UpsertItemPlace, ItemID: it.ID, StepID: s.ID, Order: it.Order}))
			}
			if f := ChangedFields(old.item, it); !f.Empty() {
				contents = append(contents, stamp(model.Upsert{Kind: model.UpsertItemContent, ItemID: it.ID, StepID: s.ID, Order: it.Order, Fields: &f}))
			}
		}
	}

	for _, s := range prev.Steps {
		for _, it := range s.Items {
			if !seenItems[it.ID] {
				deletes = append(deletes, stamp(model.Upsert{Kind: model.UpsertItemDelete, ItemID: it.ID, StepID: s.ID}))
			}
		}
	}
	for _, s := range prev.Steps {
		if !seenSteps[s.ID] {
			deletes = append(deletes, stamp(model.Upsert{Kind: model.UpsertStepDelete, StepID: s.ID}))
		}
	}

	out := make([]model.Upsert, 0, len(creates)+len(orders)+len(places)+len(contents)+len(deletes))
	out = append(out, creates...)
	out = append(out, orders...)
	out = append(out, places...)
	out = append(out, contents...)
	out = append(out, deletes...)
	return out
}

// FullFields returns a patch setting every content field of it.
func FullFields(it model.Item) model.ItemFields {
	title := it.Title
	subtitle := it.Subtitle
	explicit := it.ExplicitTime
	inferred := it.InferredTime
	dur := it.DurationMinutes
	parts := append([]string{}, it.Participants...)
	return model.ItemFields{
		Title:           &title,
		Subtitle:        &subtitle,
		ExplicitTime:    &explicit,
		InferredTime:    &inferred,
		DurationMinutes: &dur,
		Participants:    &parts,
	}
}

// ChangedFields returns a patch holding only the content fields that differ.
func ChangedFields(a, b model.Item) model.ItemFields {
	var f model.ItemFields
	if a.Title != b.Title {
		v := b.Title
		f.Title = &v
	}
	if a.Subtitle != b.Subtitle {
		v := b.Subtitle
		f.Subtitle = &v
	}
	if a.ExplicitTime != b.ExplicitTime {
		v := b.ExplicitTime
		f.ExplicitTime = &v
	}
	if a.InferredTime != b.InferredTime {
		v := b.InferredTime
		f.InferredTime = &v
	}
	if a.DurationMinutes != b.DurationMinutes {
		v := b.DurationMinutes
		f.DurationMinutes = &v
	}
	if !slices.Equal(a.Participants, b.Participants) {
		v := append([]string{}, b.Participants...)
		f.Participants = &v
	}
	return f
}
