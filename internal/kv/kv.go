// Package kv is the key-value persistence layer the paper library is stored
// in. Values are JSON documents addressed by string keys.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Keys of the persisted layout.
const (
	KeyPapers        = "savedPapers"
	KeySchemaVersion = "schemaVersion"
	KeyLastMigration = "lastMigration"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Change describes keys written by one Set call.
type Change struct {
	Values map[string]json.RawMessage
}

// Store is a JSON key-value store.
type Store interface {
	// Get returns the stored values for keys. Missing keys are absent from
	// the result.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	// Set writes every value atomically: either all keys change or none.
	Set(ctx context.Context, values map[string]any) error
	// Watch registers fn to be called after each successful Set.
	Watch(fn func(Change)) (cancel func())
	Close() error
}

// GetJSON decodes the value at key into dst. It reports false when the key
// is not set.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	values, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, err
	}
	return true, nil
}

func encode(values map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, &EncodeError{Key: k, Err: err}
		}
		out[k] = data
	}
	return out, nil
}

// EncodeError reports a value that could not be serialized.
type EncodeError struct {
	Key string
	Err error
}

func (e *EncodeError) Error() string {
	return "encoding " + e.Key + ": " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// watchers is the listener registry shared by the implementations.
type watchers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Change)
}

func (w *watchers) add(fn func(Change)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fns == nil {
		w.fns = make(map[int]func(Change))
	}
	id := w.next
	w.next++
	w.fns[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.fns, id)
	}
}

func (w *watchers) notify(c Change) {
	w.mu.Lock()
	fns := make([]func(Change), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
