package models

import "time"

// WhitelistEntry authorizes one directory username to use the application.
// Entries are consulted, never mutated, by the authentication path; only the
// whitelist administration surface (CLI and admin handlers) changes them.
type WhitelistEntry struct {
	// ID is the unique identifier of the entry. It is stable across
	// disable/reactivate cycles.
	ID uint64 `gorm:"primaryKey"`
	// Username is the directory uid this entry authorizes. Stored lowercase.
	Username string `gorm:"unique;size:100;not null"`
	// DisplayName is an optional operator-supplied display name.
	DisplayName string `gorm:"size:255"`
	// Email is an optional contact address.
	Email string `gorm:"size:255"`
	// Active gates authentication: only active entries authorize a login.
	Active bool `gorm:"not null;default:true"`
	// CreatedAt is managed by GORM.
	CreatedAt time.Time
	// UpdatedAt is managed by GORM.
	UpdatedAt time.Time
	// CreatedByID references the identity that created the entry, when known.
	CreatedByID *uint64
	// CreatedBy is the creating identity.
	CreatedBy *Identity `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL"`
}
