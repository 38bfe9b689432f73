package vectorstore

import (
	"context"
	"sync"
)

// Memory is an in-process store. Its contents are lost when the process exits.
type Memory struct {
	mu      sync.RWMutex
	units   []Unit
	vectors [][]float64
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory { return &Memory{} }

// Name identifies the backend in status output.
func (m *Memory) Name() string { return "memory" }

// Exists reports whether any units have been added.
func (m *Memory) Exists(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.units) > 0, nil
}

// Add appends the batch.
func (m *Memory) Add(ctx context.Context, units []Unit, vectors [][]float64) error {
	if err := checkBatch(units, vectors); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units = append(m.units, units...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

// Query ranks every held unit against vector.
func (m *Memory) Query(ctx context.Context, vector []float64, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rank(m.units, m.vectors, vector, k)
}

func (m *Memory) Drop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units = nil
	m.vectors = nil
	return nil
}

func (m *Memory) Close() error { return nil }
