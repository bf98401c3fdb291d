package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget this resident's API key",
		Long:  "Removes the saved API key. With --all the saved server URL is removed too.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also forget the server URL")

	return cmd
}

func runLogout(all bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.APIKey == "" && (!all || cfg.ServerURL == "") {
		fmt.Println("Not logged in.")
		return nil
	}

	cfg.APIKey = ""
	if all {
		cfg.ServerURL = ""
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}

	if all {
		fmt.Println("✓ Logged out. API key and server URL removed.")
	} else {
		fmt.Println("✓ Logged out. API key removed.")
	}
	return nil
}
