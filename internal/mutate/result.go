package mutate

import (
	"churchplan/internal/model"
	"churchplan/internal/timeline"
)

// Result is the outcome of one edit. Timeline is always safe to display: it has been
// renumbered and re-propagated. Upserts is empty when nothing changed.
type Result struct {
	Timeline model.Timeline
	Changed  bool
	Upserts  []model.Upsert
}

// commit turns a structurally edited copy into a Result. The whole tree is re-propagated
// because a move or pin change can shift every downstream time.
func commit(prev, next model.Timeline, anchorMinutes int) Result {
	next = timeline.Propagate(timeline.Normalize(next), anchorMinutes)
	next.Revision = prev.Revision + 1
	ups := timeline.Diff(prev, next)
	if len(ups) == 0 {
		return Result{Timeline: prev, Changed: false}
	}
	return Result{Timeline: next, Changed: true, Upserts: ups}
}

// Reanchor re-propagates the timeline against a (possibly new) anchor. It is also how a
// freshly hydrated snapshot gets its inferred times repaired.
func Reanchor(tl model.Timeline, anchorMinutes int) Result {
	return commit(tl, tl, anchorMinutes)
}
