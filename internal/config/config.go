// Package config handles the static configuration file and its environment
// overrides. Runtime-mutable state (directory toggle, maintenance mode) lives
// in the database and is handled by the settings package; this package only
// carries what must be known before the database is reachable.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment overrides, e.g.
// PARCADMIN_DIRECTORY_HOST overrides directory.host.
const envPrefix = "PARCADMIN"

// ReadConfig reads the configuration file at path (default ./etc/main.toml)
// and applies PARCADMIN_* environment overrides. Environment values win over
// file values, which is what the bootstrap directory fallback relies on.
func ReadConfig(path string) (Config, error) {
	v := viper.New()

	if path == "" {
		path = "./etc/main.toml"
	}

	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("webserver.port", 8080)
	v.SetDefault("webserver.shutDownTime", 5)
	v.SetDefault("webserver.session.expiryTime", "24h")

	v.SetDefault("db.gormEngine", "sqlite")
	v.SetDefault("db.name", "parcadmin")

	v.SetDefault("admin.username", "admin")

	// every directory key gets a default so environment-only overrides are
	// picked up by Unmarshal even when the file omits the section
	v.SetDefault("directory.host", "")
	v.SetDefault("directory.port", 389)
	v.SetDefault("directory.encryption", "")
	v.SetDefault("directory.baseDn", "")
	v.SetDefault("directory.searchDn", "")
	v.SetDefault("directory.searchPassword", "")
	v.SetDefault("directory.uidKey", "uid")
	v.SetDefault("directory.timeoutSeconds", 10)
	v.SetDefault("directory.skipVerify", false)

	v.SetDefault("log.logLevel", "info")
	v.SetDefault("log.appName", "goparcadmin")
	v.SetDefault("log.serviceName", "parcadmin")
	v.SetDefault("log.console.enabled", true)
}

// validate checks the minimal settings the daemon can not run without.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Admin.Username == "" {
		return errors.Wrap(ErrAdminUsernameEmpty, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	return nil
}
