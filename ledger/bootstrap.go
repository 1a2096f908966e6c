package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	// DefaultLockName is the advisory lock guarding bootstrap and repair.
	DefaultLockName = "ledger-bootstrap"

	// DefaultLockWait bounds how long Bootstrap polls for the lock.
	DefaultLockWait = 10 * time.Second

	// DefaultGrace is how long a process that did NOT get the lock waits
	// for the holder to finish before reading the persisted state.
	DefaultGrace = 2 * time.Second

	lockPollInterval = 250 * time.Millisecond
)

// Options configure Bootstrap.
type Options struct {
	// Store is the durable record store. When nil, FallbackPath alone
	// persists the chain.
	Store BlockStore

	// Locker provides the cross-process advisory lock. A nil Locker means
	// this process is the only worker; it is treated as holding the lock.
	Locker Locker

	// FallbackPath is the local chain file. It is the persistence path
	// when Store is nil, and it is removed during a repair either way.
	FallbackPath string

	// LockName, LockWait and Grace default to the package constants.
	LockName string
	LockWait time.Duration
	Grace    time.Duration
}

// Report describes what Bootstrap found and did. It is the process's
// startup health signal.
type Report struct {
	// LockAcquired records whether this process held the advisory lock.
	LockAcquired bool

	// Hydrated is the number of blocks loaded from persistence.
	Hydrated int

	// Created is true when this process created the Genesis block.
	Created bool

	// Repaired is true when an invalid chain was cleared and re-seeded.
	Repaired bool

	// Valid is the chain's validity at the end of bootstrap. When false,
	// Tamper holds the first failing index; the ledger still runs so a
	// whole fleet does not fail on a problem only one process can fix.
	Valid  bool
	Tamper *TamperError
}

// Bootstrap prepares a ready Ledger exactly once per process.
//
// It takes the named advisory lock with a bounded wait (a timeout is not
// an error: the process continues without exclusivity after a grace
// period), hydrates the chain, seeds Genesis when empty, validates, and
// repairs an invalid chain ONLY while holding the lock. Repairing without
// exclusivity could race another repairer into destroying legitimate
// blocks, so an unlocked process reports the tamper instead of fixing it.
// The lock is released on every exit path.
func Bootstrap(ctx context.Context, opts Options) (*Ledger, *Report, error) {
	lockName := opts.LockName
	if lockName == "" {
		lockName = DefaultLockName
	}
	lockWait := opts.LockWait
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	report := &Report{}

	acquired := true
	if opts.Locker != nil {
		acquired = acquireWithWait(ctx, opts.Locker, lockName, lockWait)
		if acquired {
			// Release is best effort; an advisory lock dies with its
			// holder's session regardless.
			defer func() { _ = opts.Locker.ReleaseLock(lockName) }()
		}
	}
	report.LockAcquired = acquired

	if !acquired {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(grace):
		}
	}

	var l *Ledger
	if opts.Store != nil {
		l = New(opts.Store)
	} else {
		l = NewWithFile(opts.FallbackPath)
	}

	n, err := l.Hydrate()
	if err != nil {
		if opts.Store == nil && acquired {
			// The fail-fast file path rejected its own chain; with the
			// lock held this process may rebuild it.
			if err := repair(l, opts); err != nil {
				return nil, nil, err
			}
			report.Repaired = true
			report.Valid = true
			return l, report, nil
		}
		return nil, nil, err
	}
	report.Hydrated = n

	if n == 0 {
		created, err := l.SeedGenesis()
		if err != nil {
			return nil, nil, err
		}
		report.Created = created
		report.Valid = true
		return l, report, nil
	}

	switch err := l.Validate(); {
	case err == nil:
		report.Valid = true
	case acquired:
		if err := repair(l, opts); err != nil {
			return nil, nil, err
		}
		report.Repaired = true
		report.Valid = true
	default:
		var tamper *TamperError
		if errors.As(err, &tamper) {
			report.Tamper = tamper
		}
		report.Valid = false
	}
	return l, report, nil
}

// repair clears persisted blocks, removes the file fallback if present,
// and recreates a fresh Genesis. Callers must hold the advisory lock.
func repair(l *Ledger, opts Options) error {
	if opts.Store != nil && opts.FallbackPath != "" {
		if err := os.Remove(opts.FallbackPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("ledger: repair: remove fallback: %w", err)
		}
	}
	return l.Reset()
}

// acquireWithWait polls the non-blocking advisory lock until it is taken,
// the wait budget runs out, or ctx is done. Lock errors count as not
// acquired: bootstrap proceeds without exclusivity rather than failing.
func acquireWithWait(ctx context.Context, locker Locker, name string, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for {
		ok, err := locker.TryAcquireLock(name)
		if err == nil && ok {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(lockPollInterval):
		}
	}
}
