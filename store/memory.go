package store

import (
	"context"
	"sync"
)

// MemoryStore is the in-process reference Store implementation: the
// default backend for tests, single-process deployments, and the
// "memory" config.StoreConfig.Backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Kind]map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Kind]map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, kind Kind, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.data[kind]
	if !ok {
		bucket = make(map[string][]byte)
		s.data[kind] = bucket
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	bucket[key] = cp
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, kind Kind, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.data[kind]
	if !ok {
		return nil, ErrNotFound
	}
	v, ok := bucket[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, kind Kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bucket, ok := s.data[kind]; ok {
		delete(bucket, key)
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, kind Kind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.data[kind]
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		keys = append(keys, k)
	}
	return keys, nil
}
