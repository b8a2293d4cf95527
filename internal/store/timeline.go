package store

import (
	"context"
	"encoding/json"
	"strings"

	"churchplan/internal/model"
	"churchplan/internal/timeline"
)

// LoadTimeline hydrates the running order of an event from its live rows. Inferred times
// are returned as stored; callers re-propagate before display.
func (s *Store) LoadTimeline(ctx context.Context, eventID string) (model.Timeline, error) {
	eventID = strings.TrimSpace(eventID)
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return model.Timeline{}, err
	}

	tl := model.Timeline{EventID: eventID, Steps: []model.Step{}}
	if err := s.db.QueryRowContext(ctx, `SELECT timeline_revision FROM events WHERE id = ?`, eventID).Scan(&tl.Revision); err != nil {
		return model.Timeline{}, err
	}

	steps, err := s.db.QueryContext(ctx, `SELECT id, title, ord FROM steps WHERE event_id = ? AND deleted = 0 ORDER BY ord, id`, eventID)
	if err != nil {
		return model.Timeline{}, err
	}
	byStep := map[string]int{}
	for steps.Next() {
		var st model.Step
		if err := steps.Scan(&st.ID, &st.Title, &st.Order); err != nil {
			steps.Close()
			return model.Timeline{}, err
		}
		st.Items = []model.Item{}
		byStep[st.ID] = len(tl.Steps)
		tl.Steps = append(tl.Steps, st)
	}
	if err := steps.Err(); err != nil {
		steps.Close()
		return model.Timeline{}, err
	}
	if err := steps.Close(); err != nil {
		return model.Timeline{}, err
	}

	items, err := s.db.QueryContext(ctx, `SELECT id, step_id, title, subtitle, explicit_time, inferred_time, duration_minutes, participants_json, ord
		FROM items WHERE event_id = ? AND deleted = 0 ORDER BY ord, id`, eventID)
	if err != nil {
		return model.Timeline{}, err
	}
	defer items.Close()
	for items.Next() {
		var it model.Item
		var stepID, parts string
		if err := items.Scan(&it.ID, &stepID, &it.Title, &it.Subtitle, &it.ExplicitTime, &it.InferredTime, &it.DurationMinutes, &parts, &it.Order); err != nil {
			return model.Timeline{}, err
		}
		if err := json.Unmarshal([]byte(parts), &it.Participants); err != nil {
			s.Logger.Warn("bad participants json", "item", it.ID, "err", err)
			it.Participants = []string{}
		}
		idx, ok := byStep[stepID]
		if !ok {
			s.Logger.Warn("dropping orphan item", "item", it.ID, "step", stepID)
			continue
		}
		tl.Steps[idx].Items = append(tl.Steps[idx].Items, it)
	}
	if err := items.Err(); err != nil {
		return model.Timeline{}, err
	}
	return timeline.Normalize(tl), nil
}
