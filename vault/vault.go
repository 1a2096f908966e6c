// Package vault is the service layer of CloudSeal. It ties the record
// store, the blob store and the key ledger together into the end-user
// operations: creating users, uploading and downloading files, and
// granting other users access.
//
// Plaintext exists only inside an operation. Files are encrypted before
// they reach the blob store, content keys are wrapped to a user's public
// key before they reach the ledger, and downloads reverse the two steps
// for exactly one authorized user.
package vault

import (
	"context"
	"fmt"

	"github.com/cloudsealorg/libcloudseal-go/blob"
	"github.com/cloudsealorg/libcloudseal-go/config"
	"github.com/cloudsealorg/libcloudseal-go/ledger"
	"github.com/cloudsealorg/libcloudseal-go/store"
)

// Vault aggregates the collaborators every operation needs. Fields are
// exported so callers and tests can assemble a vault from any mix of
// implementations; Open wires the standard on-disk set.
type Vault struct {
	Users  store.UserStore
	Files  store.FileStore
	Shares store.ShareStore
	Blobs  blob.Store
	Ledger *ledger.Ledger

	// Boot is the report of the bootstrap run that produced Ledger.
	// Nil when the vault was assembled directly with New.
	Boot *ledger.Report

	backend *store.BoltStore // set by Open, closed by Close
}

// New assembles a vault from explicit collaborators. The ledger must
// already be hydrated or seeded; New performs no startup work.
func New(users store.UserStore, files store.FileStore, shares store.ShareStore, blobs blob.Store, l *ledger.Ledger) *Vault {
	return &Vault{
		Users:  users,
		Files:  files,
		Shares: shares,
		Blobs:  blobs,
		Ledger: l,
	}
}

// Open builds the standard on-disk vault described by cfg: a Bolt record
// store, a sharded file blob store, and a ledger bootstrapped against the
// Bolt block bucket with the chain file as removal target for stale
// fallback state. The bootstrap lock lives in the configured lock
// directory, so concurrent CloudSeal processes on one machine coordinate
// startup through it.
func Open(ctx context.Context, cfg config.Config) (*Vault, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("vault: open: %w", err)
	}

	backend, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("vault: open record store: %w", err)
	}

	blobs, err := blob.NewFileStore(cfg.BlobDirPath())
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("vault: open blob store: %w", err)
	}

	l, report, err := ledger.Bootstrap(ctx, ledger.Options{
		Store:        backend.Blocks(),
		Locker:       store.NewFileLocker(cfg.LockDirPath()),
		FallbackPath: cfg.ChainFilePath(),
		LockName:     cfg.LockName,
		LockWait:     cfg.LockWait(),
		Grace:        cfg.Grace(),
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("vault: bootstrap ledger: %w", err)
	}

	return &Vault{
		Users:   backend.Users(),
		Files:   backend.Files(),
		Shares:  backend.Shares(),
		Blobs:   blobs,
		Ledger:  l,
		Boot:    report,
		backend: backend,
	}, nil
}

// Close releases the backing database when the vault owns one. Safe to
// call on a vault assembled with New and safe to call twice.
func (v *Vault) Close() error {
	if v.backend == nil {
		return nil
	}
	backend := v.backend
	v.backend = nil
	if err := backend.Close(); err != nil {
		return fmt.Errorf("vault: close: %w", err)
	}
	return nil
}
