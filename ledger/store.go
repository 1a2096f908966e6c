package ledger

import (
	"sort"
	"sync"
)

// BlockStore is the durable record-store contract for ledger blocks.
//
// PutBlock is an upsert keyed by the block's unique index: re-putting an
// identical block (same index, same hash) succeeds idempotently, while a
// different block at an occupied index fails with ErrIndexConflict.
// Implementations wrap I/O failures with ErrBackendUnavailable.
type BlockStore interface {
	// PutBlock persists a block keyed by its index.
	PutBlock(b *Block) error

	// ListBlocks returns every persisted block ordered by index.
	ListBlocks() ([]*Block, error)

	// ClearBlocks removes every persisted block.
	ClearBlocks() error
}

// Locker is the cross-process advisory mutual-exclusion primitive exposed
// by the record store. TryAcquireLock never blocks; bounded waiting is the
// caller's concern.
type Locker interface {
	// TryAcquireLock attempts to take the named lock without blocking.
	TryAcquireLock(name string) (bool, error)

	// ReleaseLock releases a previously acquired named lock.
	ReleaseLock(name string) error
}

// MemBlockStore is an in-memory BlockStore and Locker for tests and
// single-process embedding.
type MemBlockStore struct {
	mu     sync.RWMutex
	blocks map[uint64]*Block
	locks  map[string]bool
}

// NewMemBlockStore creates an empty in-memory block store.
func NewMemBlockStore() *MemBlockStore {
	return &MemBlockStore{
		blocks: make(map[uint64]*Block),
		locks:  make(map[string]bool),
	}
}

// PutBlock stores a block keyed by index. Identical re-puts are no-ops;
// divergent content at an occupied index fails with ErrIndexConflict.
func (s *MemBlockStore) PutBlock(b *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.blocks[b.Index]; ok {
		if existing.Hash == b.Hash {
			return nil
		}
		return ErrIndexConflict
	}
	s.blocks[b.Index] = b
	return nil
}

// ListBlocks returns all blocks ordered by index.
func (s *MemBlockStore) ListBlocks() ([]*Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ClearBlocks removes every stored block.
func (s *MemBlockStore) ClearBlocks() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks = make(map[uint64]*Block)
	return nil
}

// TryAcquireLock takes the named lock if it is free. Held locks are not
// re-acquirable until released.
func (s *MemBlockStore) TryAcquireLock(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks[name] {
		return false, nil
	}
	s.locks[name] = true
	return true, nil
}

// ReleaseLock frees the named lock.
func (s *MemBlockStore) ReleaseLock(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, name)
	return nil
}

var (
	_ BlockStore = (*MemBlockStore)(nil)
	_ Locker     = (*MemBlockStore)(nil)
)
