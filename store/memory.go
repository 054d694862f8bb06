package store

import (
	"context"
	"sync"
)

// Memory is a minimal in-memory Store for tests and examples.
type Memory[T any] struct {
	mu       sync.RWMutex
	snapshot T
	meta     Meta
	ok       bool
}

// NewMemory creates an empty in-memory store.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{}
}

// Load implements Store.
func (s *Memory[T]) Load(_ context.Context) (T, Meta, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		var zero T
		return zero, Meta{}, false, nil
	}
	return s.snapshot, cloneMeta(s.meta), true, nil
}

// Save implements Store.
func (s *Memory[T]) Save(_ context.Context, snapshot T, meta Meta) (Meta, error) {
	meta = Stamp(meta)
	s.mu.Lock()
	s.snapshot = snapshot
	s.meta = cloneMeta(meta)
	s.ok = true
	s.mu.Unlock()
	return meta, nil
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
