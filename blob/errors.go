package blob

import "errors"

var (
	// ErrNotFound indicates no content exists for the given key.
	ErrNotFound = errors.New("blob: content not found")

	// ErrInvalidKey indicates the key is empty or not filesystem-safe.
	ErrInvalidKey = errors.New("blob: invalid key")

	// ErrEmptyContent indicates an attempt to store empty content.
	ErrEmptyContent = errors.New("blob: content is empty")

	// ErrIOFailure indicates a file read/write error.
	ErrIOFailure = errors.New("blob: I/O failure")

	// ErrInvalidBaseDir indicates the base directory path is invalid.
	ErrInvalidBaseDir = errors.New("blob: invalid base directory")
)
