package main

import (
	"github.com/spf13/cobra"

	"pindl/pkg/ui"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a valid session is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(nil)
		if err != nil {
			return err
		}

		if _, err := loadSession(cfg); err != nil {
			ui.PrintError("You're not logged in")
			return nil
		}
		ui.PrintSuccess("You're logged in")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
