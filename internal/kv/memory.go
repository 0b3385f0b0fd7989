package kv

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store, used for tests and dry runs.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]json.RawMessage
	watch  watchers
	closed bool
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]json.RawMessage)}
}

// Snapshot returns a Memory store holding a copy of values read from s.
func Snapshot(ctx context.Context, s Store, keys ...string) (*Memory, error) {
	values, err := s.Get(ctx, keys...)
	if err != nil {
		return nil, err
	}
	m := NewMemory()
	for k, v := range values {
		m.data[k] = append(json.RawMessage(nil), v...)
	}
	return m, nil
}

func (m *Memory) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out, nil
}

func (m *Memory) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := encode(values)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	for k, v := range encoded {
		m.data[k] = v
	}
	m.mu.Unlock()

	m.watch.notify(Change{Values: encoded})
	return nil
}

func (m *Memory) Watch(fn func(Change)) func() {
	return m.watch.add(fn)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
