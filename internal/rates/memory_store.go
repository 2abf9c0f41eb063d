package rates

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(_ context.Context, base string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[base]
	if ok {
		e.Rates = copyRates(e.Rates)
	}
	return e, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, e Entry) error {
	e.Rates = copyRates(e.Rates)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Base] = e
	return nil
}

func (m *MemoryStore) Expire(_ context.Context, base string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, base)
	return nil
}

func copyRates(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
