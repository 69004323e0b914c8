package directory

import "errors"

var (
	// ErrConnect is returned when the directory server is unreachable or the
	// connection times out. It is never treated as "user not found".
	ErrConnect = errors.New("directory server unreachable")

	// ErrBadCredentials is returned when a bind is rejected. Which of
	// username or password was wrong is never exposed.
	ErrBadCredentials = errors.New("directory rejected credentials")

	// ErrAmbiguousOrNotFound is returned when the uid search matched zero or
	// more than one entry. The user bind is never attempted in that case.
	ErrAmbiguousOrNotFound = errors.New("directory search matched zero or multiple entries")

	// ErrEmptyPassword is returned for empty passwords before any bind, since
	// many directories treat an empty bind as anonymous and would succeed.
	ErrEmptyPassword = errors.New("empty password refused")

	// ErrNotConfigured is returned when no directory host is configured.
	ErrNotConfigured = errors.New("directory host is not configured")
)
