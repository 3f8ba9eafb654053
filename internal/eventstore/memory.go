package eventstore

import (
	"context"
	"sync"

	"github.com/tomokana225/schedule-planning/internal/models"
)

// Memory is a copy-on-write Store. Readers always see the slice as it was
// after a complete mutation, never an intermediate state.
type Memory struct {
	mu     sync.RWMutex
	events []models.Event
	ids    map[string]struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{ids: make(map[string]struct{})}
}

// List returns a copy of all events in insertion order.
func (m *Memory) List(_ context.Context) ([]models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

// Append validates and inserts events as one step.
func (m *Memory) Append(_ context.Context, events ...models.Event) error {
	if len(events) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validateBatch(events, m.has); err != nil {
		return err
	}
	next := make([]models.Event, 0, len(m.events)+len(events))
	next = append(next, m.events...)
	next = append(next, events...)
	m.commit(next)
	return nil
}

// ReplaceExternal swaps the external events for batch as one step.
func (m *Memory) ReplaceExternal(_ context.Context, batch []models.Event) error {
	if err := requireExternal(batch); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]models.Event, 0, len(m.events)+len(batch))
	localIDs := make(map[string]struct{}, len(m.events))
	for _, e := range m.events {
		if e.Source == models.SourceExternal {
			continue
		}
		next = append(next, e)
		localIDs[e.ID] = struct{}{}
	}
	taken := func(id string) bool {
		_, ok := localIDs[id]
		return ok
	}
	if err := validateBatch(batch, taken); err != nil {
		return err
	}
	next = append(next, batch...)
	m.commit(next)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func (m *Memory) has(id string) bool {
	_, ok := m.ids[id]
	return ok
}

// commit installs next; caller holds the write lock.
func (m *Memory) commit(next []models.Event) {
	ids := make(map[string]struct{}, len(next))
	for _, e := range next {
		ids[e.ID] = struct{}{}
	}
	m.events = next
	m.ids = ids
}
