package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"

	// LocalsIdentityKey is the fiber.Locals key holding the resolved identity.
	LocalsIdentityKey = "CurrentIdentity"

	// LocalsPermissionsKey is the fiber.Locals key holding the expanded
	// permission set of the resolved identity.
	LocalsPermissionsKey = "CurrentPermissions"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
