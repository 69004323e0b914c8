package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() { //nolint: gochecknoinits
	maintenanceCmd.AddCommand(maintenanceOnCmd, maintenanceOffCmd, maintenanceStatusCmd)
	rootCmd.AddCommand(maintenanceCmd)
}

var (
	maintenanceCmd = &cobra.Command{
		Use:   "maintenance",
		Short: "Control maintenance mode",
	}

	maintenanceOnCmd = &cobra.Command{
		Use:               "on [message]",
		Short:             "Enable maintenance mode, locking out everyone but administrators",
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, args []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			var message string
			if len(args) > 0 {
				message = strings.TrimSpace(args[0])
			}

			if err = services.settings.SetMaintenance(true, message); err != nil {
				return err
			}

			fmt.Println("maintenance mode enabled")

			return nil
		},
	}

	maintenanceOffCmd = &cobra.Command{
		Use:               "off",
		Short:             "Disable maintenance mode",
		Args:              cobra.NoArgs,
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, _ []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			if err = services.settings.SetMaintenance(false, ""); err != nil {
				return err
			}

			fmt.Println("maintenance mode disabled")

			return nil
		},
	}

	maintenanceStatusCmd = &cobra.Command{
		Use:               "status",
		Short:             "Show the current access mode",
		Args:              cobra.NoArgs,
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, _ []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			current := services.settings.Current()

			fmt.Printf("directory login: %v\nmaintenance:     %v\n",
				current.LDAPEnabled, current.MaintenanceMode)

			if current.MaintenanceMode && current.MaintenanceMessage != "" {
				fmt.Printf("message:         %s\n", current.MaintenanceMessage)
			}

			return nil
		},
	}
)
