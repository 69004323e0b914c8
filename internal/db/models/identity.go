package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"

	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
)

// IdentitySource tells how an identity came to exist.
type IdentitySource string

const (
	// SourceBuiltin is the reserved administrator account seeded at first start.
	// It authenticates with a local password and is never subject to the
	// directory or the whitelist.
	SourceBuiltin IdentitySource = "builtin"
	// SourceDirectory is a shadow record created on first successful
	// directory login.
	SourceDirectory IdentitySource = "directory"
	// SourceAnonymous is the synthetic identity used when the directory is
	// disabled and every request is auto-authenticated with full access.
	SourceAnonymous IdentitySource = "anonymous"
)

// AnonymousUsername is the fixed identifier of the synthetic anonymous identity.
const AnonymousUsername = "anonymous"

// RoleList is the minimal role-tag set stored for an identity, serialized as
// a JSON array. The expanded closure is always computed at check time.
type RoleList []perm.Tag

// Value implements driver.Valuer.
func (r RoleList) Value() (driver.Value, error) {
	out, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode role list: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (r *RoleList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported role list column type %T", src)
	}
}

// Identity is the canonical local user record attached to a request after
// authentication.
type Identity struct {
	// ID is the unique identifier of the identity.
	ID uint64 `gorm:"primaryKey"`
	// Username is the canonical login identifier (directory uid, the reserved
	// admin name, or the fixed anonymous identifier). Stored lowercase.
	Username string `gorm:"unique;size:100;not null"`
	// DisplayName is the human readable name shown in listings.
	DisplayName string `gorm:"size:255"`
	// Email is the contact address, filled from the directory on first login.
	Email string `gorm:"size:255"`
	// Password is the Argon2id hash; set only for the builtin admin. Never
	// serialized, so the hash stays out of the session storage.
	Password string `gorm:"size:255" json:"-"`
	// Source records how the identity authenticates.
	Source IdentitySource `gorm:"type:varchar(20);not null;default:'directory'"`
	// Roles is the minimal role-tag set (see perm.Normalize).
	Roles RoleList `gorm:"type:text"`
	// CreatedAt is managed by GORM.
	CreatedAt time.Time
	// UpdatedAt is managed by GORM.
	UpdatedAt time.Time
	// LastLoginAt is the timestamp of the last successful authentication.
	LastLoginAt *time.Time
}

// Permissions returns the capability view for this identity.
func (i *Identity) Permissions() perm.Permissions {
	return perm.FromTags(i.Roles)
}

// HashPassword hashes a plaintext password with Argon2id. Used for the
// builtin admin account only.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword compares a plaintext password against the stored hash in
// constant time. Identities without a stored hash never match.
func (i *Identity) VerifyPassword(password string) bool {
	if i.Password == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, i.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
