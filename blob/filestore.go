package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements Store using the local filesystem.
// Content is stored at {baseDir}/{key[:2]}/{key}: the first two key
// characters shard the directory so no single directory grows unbounded.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a new file-based content store.
// The directory is created if it does not exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, ErrInvalidBaseDir
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return &FileStore{baseDir: baseDir}, nil
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// shardDir returns the shard directory path for a key.
func (fs *FileStore) shardDir(key string) string {
	return filepath.Join(fs.baseDir, key[:2])
}

// filePath returns the full file path for a key.
func (fs *FileStore) filePath(key string) string {
	return filepath.Join(fs.baseDir, key[:2], key)
}

// Put stores ciphertext under key, overwriting any previous content.
func (fs *FileStore) Put(key string, ciphertext []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(ciphertext) == 0 {
		return ErrEmptyContent
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(fs.shardDir(key), 0700); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := os.WriteFile(fs.filePath(key), ciphertext, 0600); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// Get retrieves ciphertext by key.
func (fs *FileStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return data, nil
}

// Has checks if content exists for the given key.
func (fs *FileStore) Has(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, err := os.Stat(fs.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return true, nil
}

// Delete removes content by key.
func (fs *FileStore) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := os.Remove(fs.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
