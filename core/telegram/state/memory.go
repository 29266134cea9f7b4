package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[T any] struct {
	value   T
	touched time.Time
}

type memoryStore[T any] struct {
	mu      sync.RWMutex
	entries map[int64]memoryEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a process-local store. Entries untouched for longer
// than ttl are treated as absent; ttl <= 0 keeps them until deleted.
func NewMemoryStore[T any](ttl time.Duration) Store[T] {
	return newMemoryStore[T](ttl, time.Now)
}

func newMemoryStore[T any](ttl time.Duration, now func() time.Time) *memoryStore[T] {
	return &memoryStore[T]{
		entries: make(map[int64]memoryEntry[T]),
		ttl:     ttl,
		now:     now,
	}
}

func (m *memoryStore[T]) expired(e memoryEntry[T], now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.touched) > m.ttl
}

func (m *memoryStore[T]) Get(_ context.Context, userID int64) (T, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[userID]
	m.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false, nil
	}
	if m.expired(e, m.now()) {
		m.mu.Lock()
		// Re-check: a concurrent Put may have refreshed the entry.
		if cur, still := m.entries[userID]; still && m.expired(cur, m.now()) {
			delete(m.entries, userID)
		}
		m.mu.Unlock()
		return zero, false, nil
	}
	return e.value, true, nil
}

func (m *memoryStore[T]) Put(_ context.Context, userID int64, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = memoryEntry[T]{value: v, touched: m.now()}
	return nil
}

func (m *memoryStore[T]) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}

func (m *memoryStore[T]) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, id)
		}
	}
	return len(m.entries), nil
}

func (m *memoryStore[T]) Close() error { return nil }
