package store

import "errors"

var (
	// ErrNilParam is returned when a required parameter is nil or empty.
	ErrNilParam = errors.New("store: nil parameter")

	// ErrUserExists is returned when a user ID or name is already taken.
	ErrUserExists = errors.New("store: user already exists")

	// ErrUserNotFound is returned when no user matches the given ID or name.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrFileNotFound is returned when no file record matches the given ID.
	ErrFileNotFound = errors.New("store: file not found")

	// ErrShareExists is returned when a file is already shared with the
	// recipient.
	ErrShareExists = errors.New("store: share already exists")

	// ErrShareNotFound is returned when no share matches the given file and
	// recipient.
	ErrShareNotFound = errors.New("store: share not found")
)
