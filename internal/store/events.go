package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"churchplan/internal/model"

	"github.com/google/uuid"
)

// startsAtLayout stores the naive local start time; no zone is recorded.
const startsAtLayout = "2006-01-02 15:04"

func (s *Store) CreateEvent(ctx context.Context, title string, startsAt, now time.Time) (model.Event, error) {
	ev, err := NewEvent(title, startsAt, now)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.InsertEvent(ctx, ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// NewEvent builds an event with a fresh id without storing it, so callers can prepare
// its timeline before committing to the row.
func NewEvent(title string, startsAt, now time.Time) (model.Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Event{}, errors.New("event title is required")
	}
	return model.Event{
		ID:        "evt-" + uuid.NewString(),
		Title:     title,
		StartsAt:  startsAt,
		CreatedAt: now.UTC(),
	}, nil
}

func (s *Store) InsertEvent(ctx context.Context, ev model.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(id, title, starts_at, created_at_unixms, timeline_revision) VALUES(?, ?, ?, ?, 0)`,
		ev.ID, ev.Title, ev.StartsAt.Format(startsAtLayout), ev.CreatedAt.UnixMilli(),
	)
	return err
}

func (s *Store) GetEvent(ctx context.Context, id string) (model.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, starts_at, created_at_unixms FROM events WHERE id = ?`, strings.TrimSpace(id))
	ev, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return ev, err
}

// ListEvents returns all events, soonest first.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, starts_at, created_at_unixms FROM events ORDER BY starts_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// SetEventStart moves the anchor time, keeping the date.
func (s *Store) SetEventStart(ctx context.Context, id string, startsAt time.Time) (model.Event, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE events SET starts_at = ? WHERE id = ?`, startsAt.Format(startsAtLayout), strings.TrimSpace(id))
	if err != nil {
		return model.Event{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return s.GetEvent(ctx, id)
}

func scanEvent(scan func(dest ...any) error) (model.Event, error) {
	var ev model.Event
	var starts string
	var createdMs int64
	if err := scan(&ev.ID, &ev.Title, &starts, &createdMs); err != nil {
		return model.Event{}, err
	}
	t, err := time.Parse(startsAtLayout, starts)
	if err != nil {
		return model.Event{}, fmt.Errorf("event %s: bad start %q: %w", ev.ID, starts, err)
	}
	ev.StartsAt = t
	ev.CreatedAt = time.UnixMilli(createdMs).UTC()
	return ev, nil
}
