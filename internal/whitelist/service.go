// Package whitelist manages the allow-list gating which directory users may
// use the application. The authentication path only ever calls IsAuthorized;
// every mutation goes through the administrative surfaces (CLI and admin
// handlers) and is written to the audit log.
package whitelist

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
)

const whereUsername = "username = ?"

// Normalize lowercases and trims a username. Directories compare the uid
// attribute case-insensitively, so the whitelist stores and looks up
// lowercase only; both the directory search and the whitelist lookup go
// through this single normalization point.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Record is a whitelist entry joined, best effort, with its cached identity
// for listings.
type Record struct {
	models.WhitelistEntry
	LastLoginAt *time.Time
}

// Service manages whitelist entries.
type Service struct {
	db *gorm.DB
}

// NewService creates a whitelist service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// IsAuthorized reports whether an active entry exists for the username.
func (s *Service) IsAuthorized(username string) (bool, error) {
	if s.db == nil {
		return false, ErrDBNil
	}

	var count int64

	err := s.db.Model(&models.WhitelistEntry{}).
		Where("username = ? AND active = ?", Normalize(username), true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return count > 0, nil
}

// Add authorizes a directory username. The operation is idempotent: an
// existing entry (active or not) is reactivated and updated rather than
// duplicated, so the entry id stays stable across remove/add cycles.
func (s *Service) Add(username, displayName, email string, addedBy *models.Identity) (*models.WhitelistEntry, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	username = Normalize(username)
	if username == "" {
		return nil, ErrUsernameEmpty
	}

	var entry models.WhitelistEntry

	err := s.db.Where(whereUsername, username).First(&entry).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = models.WhitelistEntry{
			Username:    username,
			DisplayName: displayName,
			Email:       email,
			Active:      true,
		}

		if addedBy != nil {
			entry.CreatedByID = &addedBy.ID
		}

		if err = s.db.Create(&entry).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}

		s.audit("added", username, addedBy)

		return &entry, nil

	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	wasActive := entry.Active
	entry.Active = true

	if displayName != "" {
		entry.DisplayName = displayName
	}

	if email != "" {
		entry.Email = email
	}

	if err = s.db.Save(&entry).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if !wasActive {
		s.audit("reactivated", username, addedBy)
	}

	return &entry, nil
}

// Disable deactivates an entry. Returns ErrNotFound when none exists.
func (s *Service) Disable(username string) error {
	return s.setActive(username, false, "disabled")
}

// Reactivate re-enables a previously disabled entry. Returns ErrNotFound
// when none exists.
func (s *Service) Reactivate(username string) error {
	return s.setActive(username, true, "reactivated")
}

func (s *Service) setActive(username string, active bool, action string) error {
	if s.db == nil {
		return ErrDBNil
	}

	username = Normalize(username)

	result := s.db.Model(&models.WhitelistEntry{}).
		Where(whereUsername, username).
		Updates(map[string]interface{}{"active": active, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrStorage, result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.audit(action, username, nil)

	return nil
}

// RemovePermanently hard-deletes an entry. Returns ErrNotFound when none
// exists. The cached identity, if any, is kept for audit history.
func (s *Service) RemovePermanently(username string) error {
	if s.db == nil {
		return ErrDBNil
	}

	username = Normalize(username)

	result := s.db.Where(whereUsername, username).Delete(&models.WhitelistEntry{})
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrStorage, result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.audit("removed permanently", username, nil)

	return nil
}

// ListActive returns all active entries ordered by username.
func (s *Service) ListActive() ([]models.WhitelistEntry, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var entries []models.WhitelistEntry

	err := s.db.Where("active = ?", true).Order("username").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return entries, nil
}

// ListAll returns every entry, joined best effort with the cached identity
// so listings can show the last successful login.
func (s *Service) ListAll() ([]Record, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var entries []models.WhitelistEntry

	if err := s.db.Preload("CreatedBy").Order("username").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	records := make([]Record, len(entries))

	for i, entry := range entries {
		records[i] = Record{WhitelistEntry: entry}

		var identity models.Identity

		err := s.db.Where(whereUsername, entry.Username).First(&identity).Error
		if err == nil {
			records[i].LastLoginAt = identity.LastLoginAt
		}
	}

	return records, nil
}

// audit writes one structured log line per administrative mutation.
func (s *Service) audit(action, username string, by *models.Identity) {
	event := log.Info().Str("action", action).Str("username", username)

	if by != nil {
		event = event.Str("by", by.Username)
	}

	event.Msg("whitelist changed")
}
