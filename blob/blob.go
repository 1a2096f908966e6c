// Package blob stores opaque ciphertext bytes under caller-chosen keys.
// The vault never writes plaintext here; what ends up on disk is already
// encrypted, so the store needs no crypto of its own.
package blob

import (
	"strings"
	"sync"
)

// Store holds encrypted file content. Keys are opaque identifiers chosen
// by the caller (the vault uses UUIDs).
type Store interface {
	// Put stores ciphertext under key, overwriting any previous content.
	Put(key string, ciphertext []byte) error

	// Get retrieves ciphertext by key.
	Get(key string) ([]byte, error)

	// Has checks if content exists for the given key.
	Has(key string) (bool, error)

	// Delete removes content by key.
	Delete(key string) error
}

// validateKey rejects empty keys and keys that could escape the store's
// directory.
func validateKey(key string) error {
	if len(key) < 2 || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

// MemStore is an in-memory implementation of Store for testing.
type MemStore struct {
	mu      sync.RWMutex
	content map[string][]byte
}

// NewMemStore creates a new in-memory content store.
func NewMemStore() *MemStore {
	return &MemStore{content: make(map[string][]byte)}
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// Put stores ciphertext under key.
func (s *MemStore) Put(key string, ciphertext []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(ciphertext) == 0 {
		return ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(ciphertext))
	copy(cp, ciphertext)
	s.content[key] = cp
	return nil
}

// Get retrieves ciphertext by key.
func (s *MemStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.content[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Has checks if content exists for the given key.
func (s *MemStore) Has(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.content[key]
	return ok, nil
}

// Delete removes content by key.
func (s *MemStore) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.content[key]; !ok {
		return ErrNotFound
	}
	delete(s.content, key)
	return nil
}
