package whitelist

import "errors"

var (
	// ErrNotFound is returned when no entry exists for the given username.
	ErrNotFound = errors.New("whitelist entry not found")

	// ErrStorage is returned when the whitelist can not be read or written.
	ErrStorage = errors.New("whitelist storage failure")

	// ErrUsernameEmpty is returned when the username is empty after
	// normalization.
	ErrUsernameEmpty = errors.New("username can not be empty")

	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)
