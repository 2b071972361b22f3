// Package session keeps per-session ephemeral enforcement state: override
// directives parsed from prompts and time-boxed skill grants. State lives
// in a pluggable key/value store; entries expire lazily on read.
package session

import (
	"fmt"
	"sync"
	"time"
)

// StateStoreError marks a corrupt or unreadable session record. It is
// always recoverable: callers treat it as "no override / no active skills"
// and log it, so a broken state file can never block an enforcement
// decision.
type StateStoreError struct {
	Key string
	Err error
}

func (e *StateStoreError) Error() string {
	return fmt.Sprintf("session state %s: %v", e.Key, e.Err)
}

func (e *StateStoreError) Unwrap() error {
	return e.Err
}

// Store is the minimal key/value contract session state needs. The file
// backend is used by hook invocations, which run one at a time per session;
// the in-memory backend backs tests. Neither guards against concurrent
// writers to the same key (last write wins).
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, data []byte) error
	Delete(key string) error
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

func (s *MemoryStore) Put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.entries[key] = cp
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Manager implements the override and skill lifecycles over a Store.
// Now is replaceable so TTL boundaries can be tested without sleeping.
type Manager struct {
	store Store
	Now   func() time.Time
}

// NewManager wraps a store with the standard clock.
func NewManager(store Store) *Manager {
	return &Manager{store: store, Now: time.Now}
}
