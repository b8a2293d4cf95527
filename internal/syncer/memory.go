package syncer

import (
	"context"
	"errors"
	"sync"

	"churchplan/internal/model"
)

// ErrStaleRevision is returned by adapters for an upsert older than the stored row.
var ErrStaleRevision = errors.New("stale revision")

// Memory is an in-process Adapter that keeps the latest revision per entity. It applies
// the same stale-write rule as the SQLite store and is handy for previews and tests.
type Memory struct {
	mu       sync.Mutex
	revision map[string]int64
	applied  []model.Upsert
}

func NewMemory() *Memory {
	return &Memory{revision: map[string]int64{}}
}

func (m *Memory) Apply(ctx context.Context, u model.Upsert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := u.EntityID()
	if cur, ok := m.revision[id]; ok && u.Revision < cur {
		return ErrStaleRevision
	}
	m.revision[id] = u.Revision
	m.applied = append(m.applied, u)
	return nil
}

// Applied returns a copy of the accepted upserts in arrival order.
func (m *Memory) Applied() []model.Upsert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Upsert{}, m.applied...)
}
