package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cloudsealorg/libcloudseal-go/ledger"
)

// FileLocker implements ledger.Locker with advisory file locks. Each
// named lock is a <name>.lock file under the locker's directory; the
// kernel drops the lock when the holding process exits, so a crashed
// holder never wedges the next bootstrap.
type FileLocker struct {
	dir  string
	mu   sync.Mutex
	held map[string]*os.File
}

// Compile-time interface check.
var _ ledger.Locker = (*FileLocker)(nil)

// NewFileLocker creates a locker whose lock files live under dir.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: dir, held: make(map[string]*os.File)}
}

// TryAcquireLock takes the named lock if no process holds it. It never
// blocks; a lock held elsewhere (or already by this locker) reports
// false with no error.
func (l *FileLocker) TryAcquireLock(name string) (bool, error) {
	if name == "" {
		return false, ErrNilParam
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[name]; ok {
		return false, nil
	}

	if err := os.MkdirAll(l.dir, 0700); err != nil {
		return false, fmt.Errorf("store: create lock directory: %w", err)
	}
	f, ok, err := tryLock(filepath.Join(l.dir, name+".lock"))
	if err != nil {
		return false, fmt.Errorf("store: acquire lock %q: %w", name, err)
	}
	if !ok {
		return false, nil
	}
	l.held[name] = f
	return true, nil
}

// ReleaseLock frees the named lock. Releasing a lock this locker does
// not hold is a no-op.
func (l *FileLocker) ReleaseLock(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.held[name]
	if !ok {
		return nil
	}
	releaseLock(f)
	delete(l.held, name)
	return nil
}
