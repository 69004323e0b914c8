// Package models contains database model definitions.
package models

import "time"

// RuntimeSettings is the singleton configuration row read on every request.
// At most one row exists. When the row is absent (or the database is
// unreachable) the application deliberately behaves as "directory disabled,
// maintenance off", which means open anonymous admin access. That fail-open
// default is an operational bootstrap tradeoff, not an oversight.
type RuntimeSettings struct {
	// ID is always 1; the settings service enforces the singleton.
	ID uint64 `gorm:"primaryKey"`
	// LDAPEnabled turns directory-backed login on.
	LDAPEnabled bool
	// LDAPHost is the directory server host.
	LDAPHost string `gorm:"size:255"`
	// LDAPPort is the directory server port.
	LDAPPort int
	// LDAPEncryption selects the transport: "", "tls" (StartTLS) or "ssl".
	LDAPEncryption string `gorm:"size:10"`
	// LDAPBaseDN is the base DN for user searches.
	LDAPBaseDN string `gorm:"size:255"`
	// LDAPSearchDN is the service account DN used for the first bind.
	LDAPSearchDN string `gorm:"size:255"`
	// LDAPSearchPassword is the service account password.
	LDAPSearchPassword string `gorm:"size:255"`
	// LDAPUIDKey is the attribute compared against the login identifier.
	LDAPUIDKey string `gorm:"size:64"`
	// MaintenanceMode restricts access to administrators.
	MaintenanceMode bool
	// MaintenanceMessage is rendered on the 503 maintenance page.
	MaintenanceMessage string `gorm:"size:1024"`
	// UpdatedAt is managed by GORM.
	UpdatedAt time.Time
}
