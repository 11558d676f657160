package store

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]any
}

var _ Store = (*memoryStore)(nil)

// NewMemory returns a Store that keeps values in process memory only.
func NewMemory() Store {
	return &memoryStore{data: make(map[string]any)}
}

func (s *memoryStore) Get(_ context.Context, key string) (bool, any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return ok, val, nil
}

func (s *memoryStore) Set(_ context.Context, key string, val any) error {
	s.mu.Lock()
	s.data[key] = val
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
