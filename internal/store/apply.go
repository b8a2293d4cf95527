package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"churchplan/internal/model"
	"churchplan/internal/syncer"
)

var _ syncer.Adapter = (*Store)(nil)

// Apply writes one upsert. Re-applying the same upsert is a no-op; an upsert whose
// revision is older than the row's is rejected with syncer.ErrStaleRevision. Deletes are
// tombstones: a create at the tombstone's revision or older cannot resurrect the row, a
// create at a newer revision reuses the id. Rows are keyed by (event, id).
func (s *Store) Apply(ctx context.Context, u model.Upsert) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	table := "items"
	if u.ItemID == "" {
		table = "steps"
	}
	id := u.EntityID()
	if strings.TrimSpace(id) == "" {
		return errors.New("upsert without entity id")
	}

	var cur int64
	var deleted int
	err = tx.QueryRowContext(ctx, `SELECT revision, deleted FROM `+table+` WHERE event_id = ? AND id = ?`, u.EventID, id).Scan(&cur, &deleted)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if exists && u.Revision < cur {
		return syncer.ErrStaleRevision
	}
	if exists && deleted == 1 {
		switch u.Kind {
		case model.UpsertStepDelete, model.UpsertItemDelete:
		case model.UpsertStepCreate, model.UpsertItemCreate:
			if u.Revision == cur {
				return fmt.Errorf("%s %s: %w", table, id, ErrMissingRow)
			}
		default:
			return fmt.Errorf("%s %s: %w", table, id, ErrMissingRow)
		}
	}

	switch u.Kind {
	case model.UpsertStepCreate:
		title := ""
		if u.Title != nil {
			title = *u.Title
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO steps(id, event_id, title, ord, deleted, revision, updated_at_unixms) VALUES(?, ?, ?, ?, 0, ?, ?)
			ON CONFLICT(event_id, id) DO UPDATE SET title = excluded.title, ord = excluded.ord, deleted = 0, revision = excluded.revision, updated_at_unixms = excluded.updated_at_unixms`,
			id, u.EventID, title, u.Order, u.Revision, nowMs)

	case model.UpsertItemCreate:
		var it model.Item
		if u.Fields != nil {
			u.Fields.ApplyTo(&it)
		}
		parts, _ := json.Marshal(nonNil(it.Participants))
		_, err = tx.ExecContext(ctx, `INSERT INTO items(id, event_id, step_id, title, subtitle, explicit_time, inferred_time, duration_minutes, participants_json, ord, deleted, revision, updated_at_unixms)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
			ON CONFLICT(event_id, id) DO UPDATE SET step_id = excluded.step_id, deleted = 0, title = excluded.title, subtitle = excluded.subtitle,
				explicit_time = excluded.explicit_time, inferred_time = excluded.inferred_time, duration_minutes = excluded.duration_minutes,
				participants_json = excluded.participants_json, ord = excluded.ord, revision = excluded.revision, updated_at_unixms = excluded.updated_at_unixms`,
			id, u.EventID, u.StepID, it.Title, it.Subtitle, it.ExplicitTime, it.InferredTime, it.DurationMinutes, string(parts), u.Order, u.Revision, nowMs)

	case model.UpsertStepOrder:
		if !exists {
			return fmt.Errorf("step %s: %w", id, ErrMissingRow)
		}
		_, err = tx.ExecContext(ctx, `UPDATE steps SET ord = ?, revision = ?, updated_at_unixms = ? WHERE event_id = ? AND id = ?`, u.Order, u.Revision, nowMs, u.EventID, id)

	case model.UpsertStepTitle:
		if !exists {
			return fmt.Errorf("step %s: %w", id, ErrMissingRow)
		}
		if u.Title == nil {
			return errors.New("step.title without title")
		}
		_, err = tx.ExecContext(ctx, `UPDATE steps SET title = ?, revision = ?, updated_at_unixms = ? WHERE event_id = ? AND id = ?`, *u.Title, u.Revision, nowMs, u.EventID, id)

	case model.UpsertItemPlace:
		if !exists {
			return fmt.Errorf("item %s: %w", id, ErrMissingRow)
		}
		_, err = tx.ExecContext(ctx, `UPDATE items SET step_id = ?, ord = ?, revision = ?, updated_at_unixms = ? WHERE event_id = ? AND id = ?`, u.StepID, u.Order, u.Revision, nowMs, u.EventID, id)

	case model.UpsertItemContent:
		if !exists {
			return fmt.Errorf("item %s: %w", id, ErrMissingRow)
		}
		if u.Fields == nil {
			return errors.New("item.content without fields")
		}
		err = updateItemContent(ctx, tx, u.EventID, id, *u.Fields, u.Revision, nowMs)

	case model.UpsertItemDelete:
		if exists {
			_, err = tx.ExecContext(ctx, `UPDATE items SET deleted = 1, revision = ?, updated_at_unixms = ? WHERE event_id = ? AND id = ?`, u.Revision, nowMs, u.EventID, id)
		}

	case model.UpsertStepDelete:
		if !exists {
			break
		}
		if _, err = tx.ExecContext(ctx, `UPDATE steps SET deleted = 1, revision = ?, updated_at_unixms = ? WHERE event_id = ? AND id = ?`, u.Revision, nowMs, u.EventID, id); err != nil {
			return err
		}
		// Cascade, leaving alone items that moved on at a newer revision.
		_, err = tx.ExecContext(ctx, `UPDATE items SET deleted = 1, revision = ?, updated_at_unixms = ? WHERE event_id = ? AND step_id = ? AND deleted = 0 AND revision <= ?`, u.Revision, nowMs, u.EventID, id, u.Revision)

	default:
		return fmt.Errorf("unknown upsert kind %q", u.Kind)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE events SET timeline_revision = MAX(timeline_revision, ?) WHERE id = ?`, u.Revision, u.EventID); err != nil {
		return err
	}
	return tx.Commit()
}

func updateItemContent(ctx context.Context, tx *sql.Tx, eventID, id string, f model.ItemFields, rev, nowMs int64) error {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if f.Title != nil {
		add("title", *f.Title)
	}
	if f.Subtitle != nil {
		add("subtitle", *f.Subtitle)
	}
	if f.ExplicitTime != nil {
		add("explicit_time", *f.ExplicitTime)
	}
	if f.InferredTime != nil {
		add("inferred_time", *f.InferredTime)
	}
	if f.DurationMinutes != nil {
		add("duration_minutes", *f.DurationMinutes)
	}
	if f.Participants != nil {
		b, _ := json.Marshal(nonNil(*f.Participants))
		add("participants_json", string(b))
	}
	add("revision", rev)
	add("updated_at_unixms", nowMs)
	args = append(args, eventID, id)
	_, err := tx.ExecContext(ctx, `UPDATE items SET `+strings.Join(sets, ", ")+` WHERE event_id = ? AND id = ?`, args...)
	return err
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
