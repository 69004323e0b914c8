package settings

import "errors"

var (
	// ErrStorage is returned when the settings row can not be read or written.
	// Callers on the request path must not see this error: the read path
	// fails open instead (see Service.Current).
	ErrStorage = errors.New("settings storage failure")

	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)
