package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"churchplan/internal/model"
)

func up(kind model.UpsertKind, id string, rev int64) model.Upsert {
	u := model.Upsert{Kind: kind, Revision: rev, EventID: "evt-1"}
	switch kind {
	case model.UpsertStepCreate, model.UpsertStepOrder, model.UpsertStepTitle, model.UpsertStepDelete:
		u.StepID = id
	default:
		u.ItemID = id
	}
	return u
}

func TestDispatch_AppliesPhasesInOrder(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ups := []model.Upsert{
		up(model.UpsertStepDelete, "s-old", 3),
		up(model.UpsertItemContent, "i1", 3),
		up(model.UpsertItemPlace, "i2", 3),
		up(model.UpsertItemCreate, "i3", 3),
		up(model.UpsertStepCreate, "s-new", 3),
		up(model.UpsertStepOrder, "s1", 3),
	}
	rep := Dispatcher{Adapter: mem, Concurrency: 2}.Dispatch(context.Background(), ups)
	if err := rep.Err(); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if rep.Applied != len(ups) || rep.BatchID == "" {
		t.Fatalf("unexpected report %+v", rep)
	}
	got := mem.Applied()
	for i := 1; i < len(got); i++ {
		if Phase(got[i-1].Kind) > Phase(got[i].Kind) {
			t.Fatalf("phase order violated: %s before %s", got[i-1].Kind, got[i].Kind)
		}
	}
}

func TestDispatch_FailureDoesNotStopSiblings(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	var mu sync.Mutex
	seen := map[string]bool{}
	adapter := AdapterFunc(func(ctx context.Context, u model.Upsert) error {
		mu.Lock()
		seen[u.EntityID()] = true
		mu.Unlock()
		if u.EntityID() == "i2" {
			return boom
		}
		return nil
	})
	ups := []model.Upsert{
		up(model.UpsertItemPlace, "i1", 1),
		up(model.UpsertItemPlace, "i2", 1),
		up(model.UpsertItemPlace, "i3", 1),
		up(model.UpsertItemContent, "i2", 1),
	}
	rep := Dispatcher{Adapter: adapter}.Dispatch(context.Background(), ups)
	if len(seen) != 3 {
		t.Fatalf("expected every entity attempted; got %v", seen)
	}
	if rep.Applied != 2 || len(rep.Failures) != 2 {
		t.Fatalf("applied=%d failures=%d", rep.Applied, len(rep.Failures))
	}
	if rep.Failures[0].Upsert.Kind != model.UpsertItemPlace || rep.Failures[1].Upsert.Kind != model.UpsertItemContent {
		t.Fatalf("failures not in emission order: %v", rep.Messages())
	}
	if !errors.Is(rep.Err(), boom) {
		t.Fatalf("expected joined error to wrap cause; got %v", rep.Err())
	}
	var se *SyncError
	if !errors.As(rep.Err(), &se) || se.Upsert.ItemID != "i2" {
		t.Fatalf("expected SyncError for i2; got %v", se)
	}
}

func TestDispatch_CancelledContextFailsEverything(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep := Dispatcher{Adapter: NewMemory()}.Dispatch(ctx, []model.Upsert{
		up(model.UpsertStepOrder, "s1", 1),
		up(model.UpsertItemPlace, "i1", 1),
	})
	if rep.Applied != 0 || len(rep.Failures) != 2 {
		t.Fatalf("applied=%d failures=%d", rep.Applied, len(rep.Failures))
	}
	if !errors.Is(rep.Err(), context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", rep.Err())
	}
}

func TestMemory_RejectsStaleRevision(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ctx := context.Background()
	if err := mem.Apply(ctx, up(model.UpsertItemPlace, "i1", 5)); err != nil {
		t.Fatalf("apply rev 5: %v", err)
	}
	if err := mem.Apply(ctx, up(model.UpsertItemContent, "i1", 5)); err != nil {
		t.Fatalf("same revision must be accepted: %v", err)
	}
	if err := mem.Apply(ctx, up(model.UpsertItemPlace, "i1", 4)); !errors.Is(err, ErrStaleRevision) {
		t.Fatalf("expected ErrStaleRevision; got %v", err)
	}
	if got := len(mem.Applied()); got != 2 {
		t.Fatalf("expected 2 applied; got %d", got)
	}
}

func TestDispatch_Empty(t *testing.T) {
	t.Parallel()

	rep := Dispatcher{Adapter: NewMemory()}.Dispatch(context.Background(), nil)
	if rep.Err() != nil || rep.Applied != 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}
