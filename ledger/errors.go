package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyLedger indicates an operation that needs at least the Genesis
	// block ran against an empty chain.
	ErrEmptyLedger = errors.New("ledger: ledger is empty")

	// ErrBlockNotFound indicates no block exists at the requested index.
	ErrBlockNotFound = errors.New("ledger: block not found")

	// ErrChainTampered indicates chain validation failed. Errors carrying
	// it are *TamperError values holding the first failing index.
	ErrChainTampered = errors.New("ledger: chain tampered")

	// ErrIndexConflict indicates the store already holds a DIFFERENT block
	// at the same index. Re-putting an identical block is not a conflict;
	// it succeeds idempotently.
	ErrIndexConflict = errors.New("ledger: conflicting block at index")

	// ErrBackendUnavailable indicates an I/O failure talking to the record
	// store. Fatal to the single calling operation; never retried blindly.
	ErrBackendUnavailable = errors.New("ledger: backend unavailable")

	// ErrUnknownPayloadKind indicates a payload variant the serialization
	// boundary does not recognize.
	ErrUnknownPayloadKind = errors.New("ledger: unknown payload kind")
)

// TamperError reports the first block at which validation failed.
// It matches ErrChainTampered under errors.Is.
type TamperError struct {
	// Index is the failing block's own index value.
	Index uint64

	// Reason names the failed check.
	Reason string
}

func (e *TamperError) Error() string {
	return fmt.Sprintf("ledger: chain tampered at block %d: %s", e.Index, e.Reason)
}

func (e *TamperError) Is(target error) bool {
	return target == ErrChainTampered
}
