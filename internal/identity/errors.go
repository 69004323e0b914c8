package identity

import "errors"

// Resolution failures. The login surface collapses ErrBadCredentials and
// ErrNotWhitelisted into one constant-shape response so an attacker can not
// distinguish a wrong password from a missing whitelist entry; the audit log
// keeps the real cause.
var (
	// ErrBadCredentials is returned for a wrong password or an ambiguous or
	// missing directory match.
	ErrBadCredentials = errors.New("authentication failed")

	// ErrNotWhitelisted is returned when directory credentials were valid
	// but no active whitelist entry authorizes the user.
	ErrNotWhitelisted = errors.New("user is not whitelisted")

	// ErrMaintenanceLockout is returned for every non-admin identifier while
	// maintenance mode is active.
	ErrMaintenanceLockout = errors.New("maintenance mode restricts access to administrators")

	// ErrDirectoryUnavailable is returned when the directory can not be
	// reached. It surfaces as a server error, never as a login failure.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrNoAuthenticator is returned when no strategy supports the request.
	ErrNoAuthenticator = errors.New("no authenticator supports this request")
)
