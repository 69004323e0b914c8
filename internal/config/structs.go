package config

import (
	"time"

	"github.com/GoParcAdmin/GoParcAdmin/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration `mapstructure:"expiryTime"`
}

// Config overall data structure.
type Config struct {
	DevMode   bool `mapstructure:"devMode"` // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Admin     Admin
	Directory Directory
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  `mapstructure:"domain"`       // domain name for the webserver
	Port         int     `mapstructure:"port"`         // listening port for the webserver
	ShutDownTime int     `mapstructure:"shutDownTime"` // wait time for shutdown
	URL          string  `mapstructure:"url"`          // base url for the webserver
	Session      Session `mapstructure:"session"`      // session settings
}

// DB holds the database configuration settings.
type DB struct {
	Extras     string `mapstructure:"extras"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	GormEngine string `mapstructure:"gormEngine"` // mysql, postgres or sqlite
}

// Admin holds the reserved built-in administrator account. This account is
// independent of the directory and of maintenance mode; it is the escape
// hatch that keeps the application reachable when the directory is down.
type Admin struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Directory holds the bootstrap fallback connection parameters for the
// directory. They apply only while no runtime settings row exists or while
// individual fields of that row are unset, so a fresh deployment can reach
// the directory before any administrator configured it through the UI.
type Directory struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Encryption     string `mapstructure:"encryption"` // "", "tls" or "ssl"
	BaseDN         string `mapstructure:"baseDn"`
	SearchDN       string `mapstructure:"searchDn"`
	SearchPassword string `mapstructure:"searchPassword"`
	UIDKey         string `mapstructure:"uidKey"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	SkipVerify     bool   `mapstructure:"skipVerify"` // skip TLS verification, testing only
}
