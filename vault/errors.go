package vault

import "errors"

var (
	// ErrAccessDenied is returned when a user asks for a file they neither
	// own nor hold a grant for, or tries to share a file they do not own.
	ErrAccessDenied = errors.New("vault: access denied")

	// ErrSelfShare is returned when the share recipient is the file's owner.
	ErrSelfShare = errors.New("vault: cannot share a file with its owner")

	// ErrNameRequired is returned by CreateUser for a blank user name.
	ErrNameRequired = errors.New("vault: user name is required")
)
