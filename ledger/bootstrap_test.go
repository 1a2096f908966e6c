package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastOpts keeps lock polling and grace waits short enough for tests.
func fastOpts(store *MemBlockStore) Options {
	return Options{
		Store:    store,
		Locker:   store,
		LockWait: 50 * time.Millisecond,
		Grace:    10 * time.Millisecond,
	}
}

// tamperedStore returns a store whose second block fails validation.
func tamperedStore(t *testing.T) *MemBlockStore {
	t.Helper()
	store := NewMemBlockStore()
	l := New(store)
	_, err := l.SeedGenesis()
	require.NoError(t, err)
	_, err = l.Append(KeyRecord{OwnerID: "1", Filename: "a.txt", Key: "Sw=="})
	require.NoError(t, err)

	blocks, err := store.ListBlocks()
	require.NoError(t, err)
	blocks[1].Hash = flipHash(blocks[1].Hash)
	return store
}

// --- Fresh start ---

func TestBootstrap_EmptyStoreCreatesGenesis(t *testing.T) {
	store := NewMemBlockStore()
	l, report, err := Bootstrap(context.Background(), fastOpts(store))
	require.NoError(t, err)

	assert.True(t, report.LockAcquired)
	assert.Zero(t, report.Hydrated)
	assert.True(t, report.Created)
	assert.False(t, report.Repaired)
	assert.True(t, report.Valid)

	tail, err := l.Latest()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), tail.Index)
}

func TestBootstrap_SecondRunHydrates(t *testing.T) {
	store := NewMemBlockStore()
	_, _, err := Bootstrap(context.Background(), fastOpts(store))
	require.NoError(t, err)

	l, report, err := Bootstrap(context.Background(), fastOpts(store))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Hydrated)
	assert.False(t, report.Created, "genesis already existed")
	assert.True(t, report.Valid)
	assert.Equal(t, 1, l.Len())
}

func TestBootstrap_NilLockerActsExclusive(t *testing.T) {
	_, report, err := Bootstrap(context.Background(), Options{Store: NewMemBlockStore()})
	require.NoError(t, err)
	assert.True(t, report.LockAcquired, "a lone process is its own lock holder")
	assert.True(t, report.Created)
}

// --- Locking ---

func TestBootstrap_ReleasesLockOnExit(t *testing.T) {
	store := NewMemBlockStore()
	opts := fastOpts(store)
	opts.LockName = "startup"

	_, report, err := Bootstrap(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, report.LockAcquired)

	ok, err := store.TryAcquireLock("startup")
	require.NoError(t, err)
	assert.True(t, ok, "bootstrap must release the lock on exit")
}

func TestBootstrap_LockTimeoutIsNotFatal(t *testing.T) {
	store := NewMemBlockStore()
	ok, err := store.TryAcquireLock(DefaultLockName)
	require.NoError(t, err)
	require.True(t, ok)

	start := time.Now()
	l, report, err := Bootstrap(context.Background(), fastOpts(store))
	require.NoError(t, err, "a held lock degrades bootstrap, never fails it")

	assert.False(t, report.LockAcquired)
	assert.True(t, report.Created, "seeding needs no exclusivity, the store arbitrates")
	assert.True(t, report.Valid)
	assert.Equal(t, 1, l.Len())
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond, "grace period must elapse first")
}

func TestBootstrap_CanceledContextWhileWaiting(t *testing.T) {
	store := NewMemBlockStore()
	ok, err := store.TryAcquireLock(DefaultLockName)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = Bootstrap(ctx, fastOpts(store))
	assert.ErrorIs(t, err, context.Canceled)
}

// --- Repair ---

func TestBootstrap_RepairsTamperWithLock(t *testing.T) {
	store := tamperedStore(t)

	l, report, err := Bootstrap(context.Background(), fastOpts(store))
	require.NoError(t, err)

	assert.True(t, report.LockAcquired)
	assert.Equal(t, 2, report.Hydrated)
	assert.True(t, report.Repaired)
	assert.True(t, report.Valid)
	assert.Nil(t, report.Tamper)

	// Repair rebuilds from scratch: one fresh Genesis, nothing else.
	assert.Equal(t, 1, l.Len())
	assert.NoError(t, l.Validate())
	blocks, err := store.ListBlocks()
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestBootstrap_ReportsTamperWithoutLock(t *testing.T) {
	store := tamperedStore(t)
	ok, err := store.TryAcquireLock(DefaultLockName)
	require.NoError(t, err)
	require.True(t, ok)

	l, report, err := Bootstrap(context.Background(), fastOpts(store))
	require.NoError(t, err)

	assert.False(t, report.LockAcquired)
	assert.False(t, report.Repaired, "repair without exclusivity could destroy legitimate blocks")
	assert.False(t, report.Valid)
	require.NotNil(t, report.Tamper)
	assert.Equal(t, uint64(1), report.Tamper.Index)

	// The damaged chain must survive untouched for the lock holder.
	blocks, err := store.ListBlocks()
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
	assert.Equal(t, 2, l.Len())
}

func TestBootstrap_RepairRemovesStaleFallbackFile(t *testing.T) {
	stale := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0600))

	store := tamperedStore(t)
	opts := fastOpts(store)
	opts.FallbackPath = stale

	_, report, err := Bootstrap(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, report.Repaired)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "repair must drop the stale local chain file")
}

// --- File fallback mode ---

func TestBootstrap_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.json")

	l, report, err := Bootstrap(context.Background(), Options{FallbackPath: path})
	require.NoError(t, err)
	assert.True(t, report.Created)
	assert.True(t, report.Valid)
	require.Equal(t, 1, l.Len())

	_, err = l.Append(KeyRecord{OwnerID: "1", Filename: "a", Key: "Sw=="})
	require.NoError(t, err)

	l2, report, err := Bootstrap(context.Background(), Options{FallbackPath: path})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Hydrated)
	assert.False(t, report.Created)
	assert.Equal(t, 2, l2.Len())
}

func TestBootstrap_FileModeRebuildsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	l, report, err := Bootstrap(context.Background(), Options{FallbackPath: path})
	require.NoError(t, err)
	assert.True(t, report.Repaired)
	assert.True(t, report.Valid)
	assert.Equal(t, 1, l.Len())

	// The rebuilt file must round-trip.
	reloaded := NewWithFile(path)
	n, err := reloaded.Hydrate()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBootstrap_FileModeCorruptWithoutLockFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	locker := NewMemBlockStore()
	ok, err := locker.TryAcquireLock(DefaultLockName)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = Bootstrap(context.Background(), Options{
		FallbackPath: path,
		Locker:       locker,
		LockWait:     50 * time.Millisecond,
		Grace:        10 * time.Millisecond,
	})
	assert.Error(t, err, "an unreadable file cannot be rebuilt without the lock")
}
