package store

import (
	"context"
	"sync"
)

// Memory keeps snapshots in process memory. Used by tests and the "memory" backend.
type Memory struct {
	mu    sync.Mutex
	slots map[Slot][]byte
}

func NewMemory() *Memory {
	return &Memory{slots: map[Slot][]byte{}}
}

func (m *Memory) Load(_ context.Context, slot Slot) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Save(_ context.Context, slot Slot, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), data...)
	return nil
}
