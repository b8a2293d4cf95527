package cli

import (
	"context"

	"churchplan/internal/format"
	"churchplan/internal/model"
	"churchplan/internal/mutate"
	"churchplan/internal/store"
	"churchplan/internal/syncer"

	"github.com/spf13/cobra"
)

// session is one command's view of the current event: the open store plus a freshly
// propagated snapshot.
type session struct {
	app *App
	st  *store.Store
	ev  model.Event
	tl  model.Timeline
}

type editMeta struct {
	Changed    bool     `json:"changed"`
	Revision   int64    `json:"revision"`
	Upserts    int      `json:"upserts"`
	BatchID    string   `json:"batchId,omitempty"`
	SyncErrors []string `json:"syncErrors,omitempty"`
}

type editOutput struct {
	Data format.TimelineView `json:"data"`
	Meta editMeta            `json:"meta"`
}

// openSession loads the current event's timeline. Stored inferred times that are stale
// (e.g. written by an older build) are repaired and synced before anything else runs.
func openSession(ctx context.Context, app *App) (*session, error) {
	st, err := openStore(ctx, app)
	if err != nil {
		return nil, err
	}
	ev, err := currentEvent(ctx, app, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	tl, err := st.LoadTimeline(ctx, ev.ID)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	s := &session{app: app, st: st, ev: ev, tl: tl}
	if res := mutate.Reanchor(tl, ev.AnchorMinutes()); res.Changed {
		rep := s.dispatcher().Dispatch(ctx, res.Upserts)
		if err := rep.Err(); err != nil {
			app.logger.Warn("repairing stored times failed", "event", ev.ID, "err", err)
		}
		s.tl = res.Timeline
	}
	return s, nil
}

func (s *session) Close() error { return s.st.Close() }

func (s *session) anchor() int { return s.ev.AnchorMinutes() }

func (s *session) dispatcher() syncer.Dispatcher {
	d := syncer.Dispatcher{Adapter: s.st, Logger: s.app.logger}
	if s.app.cfg != nil {
		d.Concurrency = s.app.cfg.SyncConcurrency
	}
	return d
}

// commit dispatches an edit's upserts and prints the new timeline. The in-memory result
// stands even when some upserts fail; failures are listed in meta.syncErrors and the
// command exits non-zero.
func (s *session) commit(cmd *cobra.Command, res mutate.Result) error {
	meta := editMeta{Changed: res.Changed, Revision: res.Timeline.Revision, Upserts: len(res.Upserts)}
	var failed int
	if res.Changed {
		rep := s.dispatcher().Dispatch(cmd.Context(), res.Upserts)
		meta.BatchID = rep.BatchID
		meta.SyncErrors = rep.Messages()
		failed = len(rep.Failures)
	}
	s.tl = res.Timeline

	view := format.NewTimelineView(s.ev, res.Timeline)
	var out any = editOutput{Data: view, Meta: meta}
	if s.app.Format == "text" {
		out = view
	}
	if err := writeOut(cmd, s.app, out); err != nil {
		return err
	}
	if failed > 0 {
		for _, m := range meta.SyncErrors {
			s.app.logger.Error("sync failed", "detail", m)
		}
		return writeErr(cmd, syncFailedError{failed: failed, total: len(res.Upserts)})
	}
	return nil
}
