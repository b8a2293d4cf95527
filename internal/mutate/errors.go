package mutate

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTitle       = errors.New("title is required")
	ErrNegativeDuration = errors.New("duration must be >= 0")
	ErrDuplicateID      = errors.New("id already exists")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// InvalidTimeError is returned for explicit times that cannot be parsed as HH:MM.
type InvalidTimeError struct {
	ItemID string
	Value  string
}

func (e InvalidTimeError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("invalid time %q (expected HH:MM or HHMM)", e.Value)
	}
	return fmt.Sprintf("invalid time %q for item %s (expected HH:MM or HHMM)", e.Value, e.ItemID)
}
