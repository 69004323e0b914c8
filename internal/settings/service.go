// Package settings manages the singleton runtime configuration row.
//
// The row is read once per request and mutated only through administrative
// operations, so settings changes take effect on the next request without a
// restart. When the row is missing or unreadable the service deliberately
// reports "directory disabled, maintenance off": a fresh database boots into
// open anonymous admin access instead of locking everyone out. This fail-open
// default is security relevant and is logged loudly at startup.
package settings

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/directory"
)

// singletonID is the fixed primary key of the settings row.
const singletonID = 1

// Service reads and writes the runtime settings row.
type Service struct {
	db       *gorm.DB
	fallback config.Directory
}

// NewService creates a settings service. fallback carries the bootstrap
// directory parameters used while row fields are unset.
func NewService(db *gorm.DB, fallback config.Directory) *Service {
	return &Service{db: db, fallback: fallback}
}

// Current returns the runtime settings for this request. On a missing row or
// a storage failure it returns the zero value (directory disabled,
// maintenance off) and logs the condition; the request pipeline never fails
// because settings were unreadable.
func (s *Service) Current() models.RuntimeSettings {
	row, err := s.CurrentRow()
	if err != nil {
		log.Warn().Err(err).Msg("runtime settings unreadable, failing open to defaults")
		return models.RuntimeSettings{}
	}

	if row == nil {
		return models.RuntimeSettings{}
	}

	return *row
}

// CurrentRow returns the settings row, nil when none exists, or a storage
// error. Administrative surfaces use this variant; the request path uses
// Current.
func (s *Service) CurrentRow() (*models.RuntimeSettings, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var row models.RuntimeSettings

	err := s.db.First(&row, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &row, nil
}

// Update replaces the settings row, creating it when absent.
func (s *Service) Update(row models.RuntimeSettings) error {
	if s.db == nil {
		return ErrDBNil
	}

	row.ID = singletonID

	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	log.Info().
		Bool("ldap_enabled", row.LDAPEnabled).
		Bool("maintenance", row.MaintenanceMode).
		Msg("runtime settings updated")

	return nil
}

// SetMaintenance toggles maintenance mode. An empty message keeps the
// previous one when switching on.
func (s *Service) SetMaintenance(on bool, message string) error {
	row, err := s.CurrentRow()
	if err != nil {
		return err
	}

	if row == nil {
		row = &models.RuntimeSettings{}
	}

	row.MaintenanceMode = on
	if message != "" {
		row.MaintenanceMessage = message
	}

	return s.Update(*row)
}

// Directory builds the effective directory client configuration: row fields
// first, config fallback for anything unset. This keeps a bootstrap
// deployment able to reach the directory before an admin stored settings.
func (s *Service) Directory() directory.Config {
	row := s.Current()

	cfg := directory.Config{
		Host:           row.LDAPHost,
		Port:           row.LDAPPort,
		Encryption:     row.LDAPEncryption,
		BaseDN:         row.LDAPBaseDN,
		SearchDN:       row.LDAPSearchDN,
		SearchPassword: row.LDAPSearchPassword,
		UIDKey:         row.LDAPUIDKey,
		Timeout:        s.fallback.TimeoutSeconds,
		SkipVerify:     s.fallback.SkipVerify,
	}

	if cfg.Host == "" {
		cfg.Host = s.fallback.Host
	}

	if cfg.Port == 0 {
		cfg.Port = s.fallback.Port
	}

	if cfg.Encryption == "" {
		cfg.Encryption = s.fallback.Encryption
	}

	if cfg.BaseDN == "" {
		cfg.BaseDN = s.fallback.BaseDN
	}

	if cfg.SearchDN == "" {
		cfg.SearchDN = s.fallback.SearchDN
		if cfg.SearchPassword == "" {
			cfg.SearchPassword = s.fallback.SearchPassword
		}
	}

	if cfg.UIDKey == "" {
		cfg.UIDKey = s.fallback.UIDKey
	}

	return cfg
}
