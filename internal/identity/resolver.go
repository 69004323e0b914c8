// Package identity materializes the current user for a request.
//
// The Resolver is a composite user provider over three strategies with a
// fixed precedence:
//
//  1. the reserved built-in administrator, independent of the directory and
//     of maintenance mode (the escape hatch),
//  2. during maintenance, nobody else,
//  3. directory-backed login when the directory is enabled, gated by the
//     whitelist,
//  4. the synthetic anonymous identity when the directory is disabled.
//
// The authenticator chain on top (chain.go) picks the strategy per login
// request the way the login form drives it.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/directory"
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
	"github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	"github.com/GoParcAdmin/GoParcAdmin/internal/whitelist"
)

// defaultDirectoryRoles is the minimal tag set granted to a directory user
// on first login. Administrators can change it afterwards.
var defaultDirectoryRoles = models.RoleList{perm.TagModifier}

// Resolver resolves login identifiers into canonical local identities.
type Resolver struct {
	db            *gorm.DB
	settings      *settings.Service
	whitelist     *whitelist.Service
	newClient     directory.Factory
	adminUsername string
}

// NewResolver creates a resolver. newClient builds the directory client for
// the effective per-request configuration; tests substitute a stub factory.
func NewResolver(
	db *gorm.DB,
	settingsSvc *settings.Service,
	whitelistSvc *whitelist.Service,
	newClient directory.Factory,
	adminUsername string,
) *Resolver {
	return &Resolver{
		db:            db,
		settings:      settingsSvc,
		whitelist:     whitelistSvc,
		newClient:     newClient,
		adminUsername: whitelist.Normalize(adminUsername),
	}
}

// AdminUsername returns the reserved administrator identifier.
func (r *Resolver) AdminUsername() string { return r.adminUsername }

// Resolve applies the strategy precedence for a credential login.
func (r *Resolver) Resolve(username, password string) (*models.Identity, error) {
	username = whitelist.Normalize(username)
	current := r.settings.Current()

	if username == r.adminUsername {
		return r.ResolveAdmin(username, password)
	}

	if current.MaintenanceMode {
		log.Info().Str("username", username).Msg("login refused, maintenance lockout")
		return nil, ErrMaintenanceLockout
	}

	if current.LDAPEnabled {
		return r.ResolveDirectory(username, password)
	}

	return r.ResolveAnonymous()
}

// ResolveAdmin verifies the built-in administrator password. This path works
// regardless of directory availability and of maintenance mode.
func (r *Resolver) ResolveAdmin(username, password string) (*models.Identity, error) {
	username = whitelist.Normalize(username)
	if username != r.adminUsername {
		return nil, ErrBadCredentials
	}

	var admin models.Identity

	err := r.db.Where("username = ? AND source = ?", username, models.SourceBuiltin).
		First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Str("username", username).Msg("built-in admin identity missing")
		return nil, ErrBadCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load admin identity: %w", err)
	}

	if !admin.VerifyPassword(password) {
		log.Warn().Str("username", username).Msg("admin login failed, wrong password")
		return nil, ErrBadCredentials
	}

	r.touchLastLogin(&admin)

	return &admin, nil
}

// ResolveDirectory verifies credentials against the directory with the
// two-step bind, gates the result through the whitelist and find-or-creates
// the cached local identity.
func (r *Resolver) ResolveDirectory(username, password string) (*models.Identity, error) {
	username = whitelist.Normalize(username)

	client := r.newClient(r.settings.Directory())

	record, err := client.VerifyCredentials(username, password)
	if err != nil {
		return nil, r.mapDirectoryError(username, err)
	}

	authorized, err := r.whitelist.IsAuthorized(username)
	if err != nil {
		return nil, fmt.Errorf("whitelist lookup failed: %w", err)
	}

	if !authorized {
		// valid directory credentials, deliberately rejected: distinct in
		// the audit trail, identical to a bad password for the client
		log.Warn().Str("username", username).Msg("directory login refused, user not whitelisted")
		return nil, ErrNotWhitelisted
	}

	identity, err := r.upsertDirectoryIdentity(username, record)
	if err != nil {
		return nil, err
	}

	r.touchLastLogin(identity)

	return identity, nil
}

// mapDirectoryError logs the internal cause and maps it onto the resolution
// taxonomy.
func (r *Resolver) mapDirectoryError(username string, err error) error {
	switch {
	case errors.Is(err, directory.ErrConnect), errors.Is(err, directory.ErrNotConfigured):
		log.Error().Err(err).Str("username", username).Msg("directory unreachable during login")
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	case errors.Is(err, directory.ErrAmbiguousOrNotFound):
		log.Warn().Str("username", username).Msg("directory login failed, zero or multiple matches")
		return ErrBadCredentials
	case errors.Is(err, directory.ErrBadCredentials), errors.Is(err, directory.ErrEmptyPassword):
		log.Warn().Str("username", username).Msg("directory login failed, credentials rejected")
		return ErrBadCredentials
	default:
		log.Error().Err(err).Str("username", username).Msg("directory login failed")
		return ErrBadCredentials
	}
}

// upsertDirectoryIdentity find-or-creates the local shadow identity for a
// verified directory record. First-seen attributes populate the record;
// later logins only fill fields that are still blank, so locally edited
// display data is never overwritten.
func (r *Resolver) upsertDirectoryIdentity(username string, record *directory.Record) (*models.Identity, error) {
	var identity models.Identity

	err := r.db.Where("username = ? AND source = ?", username, models.SourceDirectory).
		First(&identity).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = models.Identity{
			Username:    username,
			DisplayName: record.DisplayName,
			Email:       record.Email,
			Source:      models.SourceDirectory,
			Roles:       models.RoleList(perm.Normalize(defaultDirectoryRoles)),
		}

		if err = r.db.Create(&identity).Error; err != nil {
			return nil, fmt.Errorf("failed to create identity: %w", err)
		}

		log.Info().Str("username", username).Msg("created local identity from directory record")

		return &identity, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}

	var dirty bool

	if identity.DisplayName == "" && record.DisplayName != "" {
		identity.DisplayName = record.DisplayName
		dirty = true
	}

	if identity.Email == "" && record.Email != "" {
		identity.Email = record.Email
		dirty = true
	}

	if dirty {
		if err = r.db.Save(&identity).Error; err != nil {
			return nil, fmt.Errorf("failed to update identity: %w", err)
		}
	}

	return &identity, nil
}

// ResolveAnonymous find-or-creates the synthetic full-access identity used
// when the directory is disabled. It is a distinct identity, never the
// built-in administrator account, so the open-access mode stays visible in
// every listing and log line.
func (r *Resolver) ResolveAnonymous() (*models.Identity, error) {
	var identity models.Identity

	err := r.db.Where("username = ? AND source = ?", models.AnonymousUsername, models.SourceAnonymous).
		First(&identity).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = models.Identity{
			Username:    models.AnonymousUsername,
			DisplayName: "Anonymous",
			Source:      models.SourceAnonymous,
			Roles:       models.RoleList{perm.TagAdmin},
		}

		if err = r.db.Create(&identity).Error; err != nil {
			return nil, fmt.Errorf("failed to create anonymous identity: %w", err)
		}

		log.Warn().Msg("directory disabled: anonymous full-access identity in use")

		return &identity, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query anonymous identity: %w", err)
	}

	return &identity, nil
}

// touchLastLogin records a successful authentication. Best effort.
func (r *Resolver) touchLastLogin(identity *models.Identity) {
	now := time.Now()
	identity.LastLoginAt = &now

	if err := r.db.Model(&models.Identity{}).
		Where("id = ?", identity.ID).
		Update("last_login_at", now).Error; err != nil {
		log.Warn().Err(err).Str("username", identity.Username).Msg("failed to record last login")
	}
}
