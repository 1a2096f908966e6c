// Package ledger implements CloudSeal's append-only, hash-chained ledger:
// per-file key records and share grants linked by SHA-256 over a canonical
// JSON encoding, persisted through a pluggable record store or a local
// chain file, with a bootstrap controller that coordinates multiple worker
// processes through a cross-process advisory lock.
//
// One Ledger instance owns the in-memory sequence exclusively. Persisted
// state is shared (via the record store); in-memory state is not.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// maxAppendAttempts bounds the optimistic retry when two processes race
// to append at the same index.
const maxAppendAttempts = 3

// Ledger is an ordered sequence of immutable, hash-linked blocks.
//
// Mutating operations are serialized by an internal lock; reads may run
// concurrently. Cross-process coordination is limited to the bootstrap
// phase (see Bootstrap); steady-state appends rely on the record store's
// unique-index upsert plus optimistic retry.
type Ledger struct {
	mu    sync.RWMutex
	store BlockStore // nil in file-fallback mode
	path  string     // chain file path, used when store is nil

	chain []*Block
}

// New creates a Ledger persisting through a durable record store.
func New(store BlockStore) *Ledger {
	return &Ledger{store: store}
}

// NewWithFile creates a Ledger persisting to a local JSON chain file.
// The file path is the fallback used when no record store is configured;
// it trades the store's shared-access semantics for fail-fast loading.
func NewWithFile(path string) *Ledger {
	return &Ledger{path: path}
}

// Hydrate loads every persisted block and replaces the in-memory chain.
//
// The record-store path trusts stored hashes and never fails on tamper,
// so a chain mid-repair by another worker cannot crash readers; call
// Validate explicitly afterwards. The file path recomputes hashes and
// fails fast on any mismatch. Returns the number of blocks loaded.
func (l *Ledger) Hydrate() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		blocks []*Block
		err    error
	)
	if l.store != nil {
		blocks, err = l.store.ListBlocks()
		if err != nil {
			return 0, fmt.Errorf("ledger: hydrate: %w", err)
		}
	} else {
		blocks, err = loadChainFile(l.path)
		if err != nil {
			return 0, err
		}
	}
	l.chain = blocks
	return len(blocks), nil
}

// SeedGenesis creates block 0 if the chain is empty. It reports whether
// this call created it: a false result with a nil error means the block
// already existed (possibly written by a concurrent worker, whose block
// is then adopted).
func (l *Ledger) SeedGenesis() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.chain) > 0 {
		return false, nil
	}

	genesis, err := newBlock(0, Genesis{Note: GenesisNote}, GenesisPreviousHash)
	if err != nil {
		return false, err
	}

	if l.store != nil {
		switch err := l.store.PutBlock(genesis); {
		case err == nil:
			l.chain = []*Block{genesis}
			return true, nil
		case errors.Is(err, ErrIndexConflict):
			// Another worker seeded first; adopt its chain.
			blocks, listErr := l.store.ListBlocks()
			if listErr != nil {
				return false, fmt.Errorf("ledger: seed genesis: %w", listErr)
			}
			l.chain = blocks
			return false, nil
		default:
			return false, fmt.Errorf("ledger: seed genesis: %w", err)
		}
	}

	if err := saveChainFile(l.path, []*Block{genesis}); err != nil {
		return false, err
	}
	l.chain = []*Block{genesis}
	return true, nil
}

// Append creates the next block carrying payload and persists it.
//
// The block is built from the current tail (index+1, previous hash) and
// persisted BEFORE the in-memory chain grows, so a persistence failure
// leaves the tail unchanged. When another process wins the same index,
// the authoritative chain is re-read and the append retried with
// recomputed index and previous hash, a bounded number of times.
// Persisted blocks are never rolled back.
func (l *Ledger) Append(payload Payload) (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.chain) == 0 {
		return nil, ErrEmptyLedger
	}

	if l.store == nil {
		return l.appendToFile(payload)
	}

	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		tail := l.chain[len(l.chain)-1]
		b, err := newBlock(tail.Index+1, payload, tail.Hash)
		if err != nil {
			return nil, err
		}

		err = l.store.PutBlock(b)
		if err == nil {
			l.chain = append(l.chain, b)
			return b, nil
		}
		if !errors.Is(err, ErrIndexConflict) {
			return nil, fmt.Errorf("ledger: append: %w", err)
		}

		// Lost the race for this index: adopt the authoritative chain
		// and recompute from its tail.
		blocks, listErr := l.store.ListBlocks()
		if listErr != nil {
			return nil, fmt.Errorf("ledger: append: %w", listErr)
		}
		l.chain = blocks
		if len(l.chain) == 0 {
			return nil, ErrEmptyLedger
		}
	}
	return nil, fmt.Errorf("ledger: append: %w after %d attempts", ErrIndexConflict, maxAppendAttempts)
}

// appendToFile persists the candidate chain to the fallback file before
// the in-memory chain grows. Caller holds the write lock.
func (l *Ledger) appendToFile(payload Payload) (*Block, error) {
	tail := l.chain[len(l.chain)-1]
	b, err := newBlock(tail.Index+1, payload, tail.Hash)
	if err != nil {
		return nil, err
	}

	// Full slice expression forces the append to copy, keeping l.chain
	// untouched until the write succeeds.
	candidate := append(l.chain[:len(l.chain):len(l.chain)], b)
	if err := saveChainFile(l.path, candidate); err != nil {
		return nil, err
	}
	l.chain = candidate
	return b, nil
}

// Latest returns the tail block. Fails with ErrEmptyLedger only before
// Genesis exists, which a bootstrapped ledger never is.
func (l *Ledger) Latest() (*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.chain) == 0 {
		return nil, ErrEmptyLedger
	}
	return l.chain[len(l.chain)-1], nil
}

// ByIndex returns the block with the given index.
func (l *Ledger) ByIndex(index uint64) (*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Position equals index on a well-formed chain; fall back to a scan
	// so a gapped (invalid but loaded) chain still resolves what it has.
	if index < uint64(len(l.chain)) && l.chain[index].Index == index {
		return l.chain[index], nil
	}
	for _, b := range l.chain {
		if b.Index == index {
			return b, nil
		}
	}
	return nil, ErrBlockNotFound
}

// Len returns the chain length.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chain)
}

// Blocks returns a copy of the chain slice. The blocks themselves are
// shared and must be treated as immutable.
func (l *Ledger) Blocks() []*Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Block, len(l.chain))
	copy(out, l.chain)
	return out
}

// Validate recomputes every block hash and checks every predecessor
// link, reporting the first failing index as a *TamperError. Safe to
// call concurrently with reads.
func (l *Ledger) Validate() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return ValidateChain(l.chain)
}

// Reset clears all persisted blocks and recreates a fresh Genesis.
// Only the bootstrap controller calls this, and only while holding the
// cross-process lock; see Bootstrap.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		if err := l.store.ClearBlocks(); err != nil {
			return fmt.Errorf("ledger: reset: %w", err)
		}
	} else if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("ledger: reset: remove chain file: %w", err)
		}
	}
	l.chain = nil

	genesis, err := newBlock(0, Genesis{Note: GenesisNote}, GenesisPreviousHash)
	if err != nil {
		return err
	}
	if l.store != nil {
		if err := l.store.PutBlock(genesis); err != nil {
			return fmt.Errorf("ledger: reset: %w", err)
		}
	} else if err := saveChainFile(l.path, []*Block{genesis}); err != nil {
		return err
	}
	l.chain = []*Block{genesis}
	return nil
}
