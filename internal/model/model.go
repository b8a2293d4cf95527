package model

import (
	"strings"
	"time"
)

// Event is the service being planned. Only its start time matters to the running order.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"startsAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnchorMinutes returns the event start as minutes since midnight (naive local clock).
func (e Event) AnchorMinutes() int {
	return e.StartsAt.Hour()*60 + e.StartsAt.Minute()
}

// Step is a labeled section of the running order ("Abertura", "Louvor").
type Step struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
	Items []Item `json:"items"`
}

type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`

	// ExplicitTime is the user-entered HH:MM pin. Empty means no pin.
	ExplicitTime string `json:"explicitTime,omitempty"`
	// InferredTime is always engine-computed; it is what gets displayed and persisted.
	InferredTime string `json:"inferredTime"`

	DurationMinutes int      `json:"durationMinutes,omitempty"`
	Participants    []string `json:"participants"`
	Order           int      `json:"order"`
}

// Timeline is an immutable-by-convention snapshot of an event's running order.
// Mutations go through Clone and return a new value.
type Timeline struct {
	EventID  string `json:"eventId"`
	Revision int64  `json:"revision"`
	Steps    []Step `json:"steps"`
}

// Clone returns a deep copy so callers can mutate freely without touching the source snapshot.
func (t Timeline) Clone() Timeline {
	out := Timeline{EventID: t.EventID, Revision: t.Revision}
	out.Steps = make([]Step, len(t.Steps))
	for i, s := range t.Steps {
		ns := s
		ns.Items = make([]Item, len(s.Items))
		for j, it := range s.Items {
			ni := it
			if it.Participants != nil {
				ni.Participants = append([]string{}, it.Participants...)
			}
			ns.Items[j] = ni
		}
		out.Steps[i] = ns
	}
	return out
}

func (t Timeline) StepIndex(stepID string) int {
	stepID = strings.TrimSpace(stepID)
	for i := range t.Steps {
		if t.Steps[i].ID == stepID {
			return i
		}
	}
	return -1
}

// ItemIndex locates an item; both indexes are -1 when it does not exist.
func (t Timeline) ItemIndex(itemID string) (stepIdx, itemIdx int) {
	itemID = strings.TrimSpace(itemID)
	for i := range t.Steps {
		for j := range t.Steps[i].Items {
			if t.Steps[i].Items[j].ID == itemID {
				return i, j
			}
		}
	}
	return -1, -1
}

// Sequence returns the global sequence: every item, step order first then item order.
func (t Timeline) Sequence() []Item {
	var out []Item
	for _, s := range t.Steps {
		out = append(out, s.Items...)
	}
	return out
}

type UpsertKind string

const (
	UpsertStepCreate  UpsertKind = "step.create"
	UpsertStepOrder   UpsertKind = "step.order"
	UpsertStepTitle   UpsertKind = "step.title"
	UpsertStepDelete  UpsertKind = "step.delete"
	UpsertItemCreate  UpsertKind = "item.create"
	UpsertItemPlace   UpsertKind = "item.place"
	UpsertItemContent UpsertKind = "item.content"
	UpsertItemDelete  UpsertKind = "item.delete"
)

// Upsert is one idempotent row-update instruction for the durable copy.
// Revision is the timeline revision that produced it; stores use it to drop stale writes.
type Upsert struct {
	Kind     UpsertKind  `json:"kind"`
	Revision int64       `json:"revision"`
	EventID  string      `json:"eventId"`
	StepID   string      `json:"stepId,omitempty"`
	ItemID   string      `json:"itemId,omitempty"`
	Order    int         `json:"order"`
	Title    *string     `json:"title,omitempty"`
	Fields   *ItemFields `json:"fields,omitempty"`
}

// EntityID returns the id of the row the instruction writes.
func (u Upsert) EntityID() string {
	if u.ItemID != "" {
		return u.ItemID
	}
	return u.StepID
}

// ItemFields is a sparse patch: nil fields are unchanged.
type ItemFields struct {
	Title           *string   `json:"title,omitempty"`
	Subtitle        *string   `json:"subtitle,omitempty"`
	ExplicitTime    *string   `json:"explicitTime,omitempty"`
	InferredTime    *string   `json:"inferredTime,omitempty"`
	DurationMinutes *int      `json:"durationMinutes,omitempty"`
	Participants    *[]string `json:"participants,omitempty"`
}

func (f ItemFields) Empty() bool {
	return f.Title == nil && f.Subtitle == nil && f.ExplicitTime == nil &&
		f.InferredTime == nil && f.DurationMinutes == nil && f.Participants == nil
}

// ApplyTo writes the patch onto it.
func (f ItemFields) ApplyTo(it *Item) {
	if f.Title != nil {
		it.Title = *f.Title
	}
	if f.Subtitle != nil {
		it.Subtitle = *f.Subtitle
	}
	if f.ExplicitTime != nil {
		it.ExplicitTime = *f.ExplicitTime
	}
	if f.InferredTime != nil {
		it.InferredTime = *f.InferredTime
	}
	if f.DurationMinutes != nil {
		it.DurationMinutes = *f.DurationMinutes
	}
	if f.Participants != nil {
		it.Participants = append([]string{}, (*f.Participants)...)
	}
}
