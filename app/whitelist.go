package app

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/GoParcAdmin/GoParcAdmin/internal/daemon"
	"github.com/GoParcAdmin/GoParcAdmin/internal/directory"
	"github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	"github.com/GoParcAdmin/GoParcAdmin/internal/whitelist"
)

func init() { //nolint: gochecknoinits
	whitelistListCmd.Flags().BoolVar(&whitelistListAll, "all", false,
		"Include disabled entries")

	whitelistAddCmd.Flags().StringVar(&whitelistAddName, "name", "", "Display name")
	whitelistAddCmd.Flags().StringVar(&whitelistAddEmail, "email", "", "Email address")
	whitelistAddCmd.Flags().BoolVarP(&whitelistAddYes, "yes", "y", false,
		"Skip the confirmation prompt when the user is not found in the directory")

	whitelistCmd.AddCommand(
		whitelistListCmd,
		whitelistAddCmd,
		whitelistRemoveCmd,
		whitelistActivateCmd,
		whitelistPurgeCmd,
		whitelistTestCmd,
	)
	rootCmd.AddCommand(whitelistCmd)
}

var (
	whitelistListAll  bool
	whitelistAddName  string
	whitelistAddEmail string
	whitelistAddYes   bool

	whitelistCmd = &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the directory login whitelist",
	}

	whitelistListCmd = &cobra.Command{
		Use:               "list",
		Short:             "List whitelist entries",
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, _ []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			entries, err := listEntries(services.whitelist, whitelistListAll)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tNAME\tEMAIL\tSTATE\tCREATED\tCREATED BY\tLAST LOGIN")

			for _, e := range entries {
				state := "active"
				if !e.Active {
					state = "disabled"
				}

				createdBy := "-"
				if e.CreatedBy != nil {
					createdBy = e.CreatedBy.Username
				}

				lastLogin := "never"
				if e.LastLoginAt != nil {
					lastLogin = e.LastLoginAt.Format("2006-01-02 15:04")
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Username, e.DisplayName, e.Email, state,
					e.CreatedAt.Format("2006-01-02"), createdBy, lastLogin)
			}

			return w.Flush()
		},
	}

	whitelistAddCmd = &cobra.Command{
		Use:               "add <username>",
		Short:             "Authorize a directory user to log in",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, args []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			username := whitelist.Normalize(args[0])
			name := whitelistAddName
			email := whitelistAddEmail

			// with the directory enabled, look the user up first, both to
			// warn on typos and to prefill the display attributes
			if services.settings.Current().LDAPEnabled {
				record, lookupErr := services.lookup(username)

				switch {
				case lookupErr == nil && record != nil:
					if name == "" {
						name = record.DisplayName
					}

					if email == "" {
						email = record.Email
					}
				case !whitelistAddYes:
					fmt.Printf("warning: %q was not found in the directory (%v)\n", username, lookupErr)

					prompt := promptui.Prompt{
						Label:     "Add the entry anyway",
						IsConfirm: true,
					}

					if _, promptErr := prompt.Run(); promptErr != nil {
						fmt.Println("aborted")
						return nil
					}
				}
			}

			entry, err := services.whitelist.Add(username, name, email, nil)
			if err != nil {
				return err
			}

			fmt.Printf("whitelisted %q\n", entry.Username)

			return nil
		},
	}

	whitelistRemoveCmd = &cobra.Command{
		Use:               "remove <username>",
		Short:             "Deactivate a whitelist entry, keeping it for later reactivation",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, args []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			if err = services.whitelist.Disable(args[0]); err != nil {
				return err
			}

			fmt.Printf("removed %q\n", whitelist.Normalize(args[0]))

			return nil
		},
	}

	whitelistActivateCmd = &cobra.Command{
		Use:               "activate <username>",
		Short:             "Reactivate a deactivated whitelist entry",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, args []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			if err = services.whitelist.Reactivate(args[0]); err != nil {
				return err
			}

			fmt.Printf("activated %q\n", whitelist.Normalize(args[0]))

			return nil
		},
	}

	whitelistPurgeCmd = &cobra.Command{
		Use:               "purge <username>",
		Short:             "Remove a whitelist entry permanently",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, args []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			if err = services.whitelist.RemovePermanently(args[0]); err != nil {
				return err
			}

			fmt.Printf("purged %q\n", whitelist.Normalize(args[0]))

			return nil
		},
	}

	whitelistTestCmd = &cobra.Command{
		Use:               "test <username>",
		Short:             "Look a user up in the directory and show the whitelist status",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: loadConfig,
		RunE: func(_ *cobra.Command, args []string) error {
			services, err := openServices()
			if err != nil {
				return err
			}

			if !services.settings.Current().LDAPEnabled {
				return errors.New("directory login is disabled")
			}

			username := whitelist.Normalize(args[0])

			record, err := services.lookup(username)
			if err != nil {
				return err
			}

			if record == nil {
				return errors.New("user not found")
			}

			authorized, err := services.whitelist.IsAuthorized(username)
			if err != nil {
				return err
			}

			status := "not whitelisted"
			if authorized {
				status = "whitelisted"
			}

			fmt.Printf("dn:        %s\nname:      %s\nemail:     %s\nwhitelist: %s\n",
				record.DN, record.DisplayName, record.Email, status)

			return nil
		},
	}
)

// cliServices bundles what the whitelist commands need against one DB handle.
type cliServices struct {
	db        *gorm.DB
	settings  *settings.Service
	whitelist *whitelist.Service
}

func openServices() (*cliServices, error) {
	db, err := daemon.OpenDB(&cfg)
	if err != nil {
		return nil, err
	}

	return &cliServices{
		db:        db,
		settings:  settings.NewService(db, cfg.Directory),
		whitelist: whitelist.NewService(db),
	}, nil
}

func (s *cliServices) lookup(username string) (*directory.Record, error) {
	client := directory.NewClient(s.settings.Directory())

	return client.FindUser(username)
}

func listEntries(svc *whitelist.Service, all bool) ([]whitelist.Record, error) {
	entries, err := svc.ListAll()
	if err != nil || all {
		return entries, err
	}

	active := make([]whitelist.Record, 0, len(entries))

	for _, e := range entries {
		if e.Active {
			active = append(active, e)
		}
	}

	return active, nil
}
