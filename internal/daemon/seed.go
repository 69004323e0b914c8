package daemon

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
	"github.com/GoParcAdmin/GoParcAdmin/internal/whitelist"
)

// seed ensures the reserved built-in administrator account exists. The
// account is the escape hatch that stays usable while the directory is down
// or maintenance mode is on, so a database without it is unusable.
func seed(cfg *config.Config, db *gorm.DB) {
	username := whitelist.Normalize(cfg.Admin.Username)
	if username == "" {
		username = "admin"
	}

	password := cfg.Admin.Password
	if password == "" {
		password = "changeme"

		log.Warn().Msg("no admin password configured, seeding with the default one")
	}

	var admin models.Identity

	err := db.Where("username = ? AND source = ?", username, models.SourceBuiltin).
		First(&admin).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		admin = models.Identity{
			Username: username,
			Password: models.HashPassword(password),
			Source:   models.SourceBuiltin,
			Roles:    models.RoleList{perm.TagAdmin},
		}

		if err = db.Create(&admin).Error; err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin identity")
		}

		log.Info().Str("username", username).Msg("seeded built-in admin identity")

		return
	}

	if err != nil {
		log.Fatal().Err(err).Msg("failed to query admin identity")
	}
}
