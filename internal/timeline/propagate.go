package timeline

import (
	"strings"

	"churchplan/internal/model"
	"churchplan/internal/timecode"
)

// Propagate assigns InferredTime to every item by walking the global sequence with a
// running clock seeded from anchorMinutes.
//
// A parsable ExplicitTime is a checkpoint: the clock resets to it. An unparsable one
// keeps the item's previous InferredTime (or the clock value when there is none) and
// leaves the clock alone. The clock then advances by the item's duration.
//
// Structure is untouched, so Propagate(Propagate(t)) == Propagate(t).
func Propagate(tl model.Timeline, anchorMinutes int) model.Timeline {
	out := tl.Clone()
	clock := anchorMinutes
	for i := range out.Steps {
		for j := range out.Steps[i].Items {
			it := &out.Steps[i].Items[j]
			explicit := strings.TrimSpace(it.ExplicitTime)
			switch m, ok := timecode.ParseMinutes(explicit); {
			case ok:
				clock = m
				it.InferredTime = timecode.FormatMinutes(clock)
			case explicit != "" && it.InferredTime != "":
				// malformed pin: keep what was displayed before
			default:
				it.InferredTime = timecode.FormatMinutes(clock)
			}
			if it.DurationMinutes > 0 {
				clock += it.DurationMinutes
			}
		}
	}
	return out
}

// EndMinutes returns the running clock after the last item, i.e. when the service ends.
func EndMinutes(tl model.Timeline, anchorMinutes int) int {
	clock := anchorMinutes
	for _, it := range tl.Sequence() {
		if m, ok := timecode.ParseMinutes(it.ExplicitTime); ok {
			clock = m
		}
		if it.DurationMinutes > 0 {
			clock += it.DurationMinutes
		}
	}
	return clock
}
