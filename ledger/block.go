package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// GenesisPreviousHash is the sentinel previous-hash of block 0.
	GenesisPreviousHash = "0"

	// GenesisNote is the marker recorded in a freshly created chain.
	GenesisNote = "Genesis Block - CloudSeal Ledger Initialized"

	// HashLen is the hex length of a block hash (SHA-256).
	HashLen = 64
)

// Block is one immutable entry of the hash chain. Blocks are never
// mutated or deleted after creation; the only growth operation is append.
type Block struct {
	// Index is the block's position, strictly sequential from 0.
	Index uint64

	// Timestamp is the creation instant in unix seconds (wall clock).
	Timestamp float64

	// Payload is the typed block content.
	Payload Payload

	// PreviousHash is the prior block's Hash; "0" for block 0.
	PreviousHash string

	// Hash is the hex SHA-256 over the canonical serialization of
	// {index, timestamp, data, previous_hash}.
	Hash string
}

// blockWire is the persisted/wire shape of a block. The canonical
// serialization the hash covers is this exact object WITHOUT the hash
// field, in this exact field order; do not reorder.
type blockWire struct {
	Index        uint64          `json:"index"`
	Timestamp    float64         `json:"timestamp"`
	Data         json.RawMessage `json:"data"`
	PreviousHash string          `json:"previous_hash"`
	Hash         string          `json:"hash,omitempty"`
}

// ComputeHash digests the canonical serialization of a block's contents.
// The encoding is deterministic: fixed-order struct fields at every level
// and a float64 timestamp that round-trips exactly through encoding/json.
func ComputeHash(index uint64, timestamp float64, payload Payload, previousHash string) (string, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return "", err
	}
	canonical, err := json.Marshal(blockWire{
		Index:        index,
		Timestamp:    timestamp,
		Data:         data,
		PreviousHash: previousHash,
	})
	if err != nil {
		return "", fmt.Errorf("ledger: marshal block: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// newBlock builds a hashed block stamped with the current wall clock.
func newBlock(index uint64, payload Payload, previousHash string) (*Block, error) {
	ts := unixNow()
	hash, err := ComputeHash(index, ts, payload, previousHash)
	if err != nil {
		return nil, err
	}
	return &Block{
		Index:        index,
		Timestamp:    ts,
		Payload:      payload,
		PreviousHash: previousHash,
		Hash:         hash,
	}, nil
}

// Recompute re-derives the block's hash from its contents. Equality with
// the stored Hash field is the per-block tamper check.
func (b *Block) Recompute() (string, error) {
	return ComputeHash(b.Index, b.Timestamp, b.Payload, b.PreviousHash)
}

// MarshalJSON emits the persisted wire form, hash included.
func (b *Block) MarshalJSON() ([]byte, error) {
	data, err := marshalPayload(b.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(blockWire{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Data:         data,
		PreviousHash: b.PreviousHash,
		Hash:         b.Hash,
	})
}

// UnmarshalJSON decodes the persisted wire form. The stored hash field is
// carried over as is: hydration trusts it, validation is a separate step.
func (b *Block) UnmarshalJSON(raw []byte) error {
	var wire blockWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("ledger: unmarshal block: %w", err)
	}
	payload, err := unmarshalPayload(wire.Data)
	if err != nil {
		return err
	}
	b.Index = wire.Index
	b.Timestamp = wire.Timestamp
	b.Payload = payload
	b.PreviousHash = wire.PreviousHash
	b.Hash = wire.Hash
	return nil
}

// ValidateChain checks every block's stored hash against a recomputation
// and every predecessor link, short-circuiting at the first failure.
// Pure and side-effect free; O(n) in chain length.
func ValidateChain(chain []*Block) error {
	for i, b := range chain {
		recomputed, err := b.Recompute()
		if err != nil {
			return &TamperError{Index: b.Index, Reason: fmt.Sprintf("unhashable content: %v", err)}
		}
		if recomputed != b.Hash {
			return &TamperError{Index: b.Index, Reason: "hash mismatch"}
		}
		if i == 0 {
			if b.Index != 0 {
				return &TamperError{Index: b.Index, Reason: "chain does not start at block 0"}
			}
			if b.PreviousHash != GenesisPreviousHash {
				return &TamperError{Index: b.Index, Reason: "genesis previous hash is not the sentinel"}
			}
			continue
		}
		prev := chain[i-1]
		if b.Index != prev.Index+1 {
			return &TamperError{Index: b.Index, Reason: fmt.Sprintf("index gap after block %d", prev.Index)}
		}
		if b.PreviousHash != prev.Hash {
			return &TamperError{Index: b.Index, Reason: fmt.Sprintf("previous hash does not match block %d", prev.Index)}
		}
	}
	return nil
}

func unixNow() float64 {
	t := time.Now()
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
