// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
)

var (
	configPath string // Path to the configuration file
	cfg        config.Config
	err        error

	rootCmd = &cobra.Command{
		Use:   "go-parc-admin",
		Short: "GoParcAdmin is a web-based inventory tool for municipal IT assets",
		Long: `GoParcAdmin is a web-based inventory tool for municipal IT assets
that tracks phone lines, computer equipment and network boxes, with
directory-backed authentication and a login whitelist.`,
		Args: cobra.OnlyValidArgs,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml",
		"Path to the configuration file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration file for CLI commands.
func loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err = config.ReadConfig(configPath)

	return err
}
