package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore implements Store in memory. Used under test and as a fallback
// when no database path is configured.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Load unmarshals the document stored under key into v.
func (s *MemoryStore) Load(_ context.Context, key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.docs[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode document %q: %w", key, err)
	}
	return true, nil
}

// Save stores v as JSON under key.
func (s *MemoryStore) Save(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = raw
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
