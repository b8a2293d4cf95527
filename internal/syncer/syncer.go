// Package syncer hands timeline upserts to the durable store.
//
// Dispatch is optimistic: the in-memory timeline is already committed when it runs, so
// failures are reported, never rolled back or retried here.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"churchplan/internal/model"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Adapter applies one upsert. Implementations must be idempotent per upsert and must
// refuse upserts older than what they already hold for the same entity.
type Adapter interface {
	Apply(ctx context.Context, u model.Upsert) error
}

type AdapterFunc func(ctx context.Context, u model.Upsert) error

func (f AdapterFunc) Apply(ctx context.Context, u model.Upsert) error { return f(ctx, u) }

// SyncError is one rejected or failed upsert.
type SyncError struct {
	Upsert model.Upsert
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s %s (rev %d): %v", e.Upsert.Kind, e.Upsert.EntityID(), e.Upsert.Revision, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

type Report struct {
	BatchID  string       `json:"batchId"`
	Applied  int          `json:"applied"`
	Failures []*SyncError `json:"-"`
}

// Err joins all failures, or nil.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Messages returns one line per failure, for user-facing output.
func (r Report) Messages() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Error())
	}
	return out
}

const DefaultConcurrency = 4

type Dispatcher struct {
	Adapter     Adapter
	Concurrency int
	Logger      *slog.Logger
}

// Phase orders upsert kinds so that rows exist before they are placed, placed before
// their content is touched, and removed last. Upserts in the same phase are independent.
func Phase(k model.UpsertKind) int {
	switch k {
	case model.UpsertStepCreate:
		return 0
	case model.UpsertItemCreate:
		return 1
	case model.UpsertStepOrder:
		return 2
	case model.UpsertItemPlace:
		return 3
	case model.UpsertItemContent, model.UpsertStepTitle:
		return 4
	case model.UpsertItemDelete:
		return 5
	case model.UpsertStepDelete:
		return 6
	default:
		return 7
	}
}

// Dispatch applies ups phase by phase. Within a phase upserts run concurrently; a failure
// never cancels its siblings.
func (d Dispatcher) Dispatch(ctx context.Context, ups []model.Upsert) Report {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := d.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	rep := Report{BatchID: uuid.NewString()}
	if len(ups) == 0 {
		return rep
	}

	// Phases hold indexes into ups so failures can be reported in emission order.
	phases := map[int][]int{}
	for i, u := range ups {
		p := Phase(u.Kind)
		phases[p] = append(phases[p], i)
	}
	keys := make([]int, 0, len(phases))
	for p := range phases {
		keys = append(keys, p)
	}
	sort.Ints(keys)

	var mu sync.Mutex
	failedAt := map[int]*SyncError{}
	for _, p := range keys {
		batch := phases[p]
		if err := ctx.Err(); err != nil {
			for _, i := range batch {
				failedAt[i] = &SyncError{Upsert: ups[i], Err: err}
			}
			continue
		}

		var g errgroup.Group
		g.SetLimit(limit)
		for _, i := range batch {
			u := ups[i]
			g.Go(func() error {
				err := d.Adapter.Apply(ctx, u)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failedAt[i] = &SyncError{Upsert: u, Err: err}
					logger.Warn("sync upsert failed", "batch", rep.BatchID, "kind", u.Kind, "entity", u.EntityID(), "revision", u.Revision, "err", err)
					return nil
				}
				rep.Applied++
				return nil
			})
		}
		_ = g.Wait()
	}
	for i := range ups {
		if f, ok := failedAt[i]; ok {
			rep.Failures = append(rep.Failures, f)
		}
	}

	logger.Debug("sync dispatch done", "batch", rep.BatchID, "applied", rep.Applied, "failed", len(rep.Failures))
	return rep
}
