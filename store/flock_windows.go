//go:build windows

package store

import (
	"fmt"
	"os"
)

// Windows stub: file locking not supported via syscall.Flock. Locks are
// process-safe via the FileLocker mutex but not cross-process safe on
// Windows.

// tryLock opens the lock file but does not acquire a cross-process lock
// on Windows.
func tryLock(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, false, fmt.Errorf("open lock file: %w", err)
	}
	return f, true, nil
}

// releaseLock closes the lock file.
func releaseLock(f *os.File) {
	if f == nil {
		return
	}
	_ = f.Close()
}
