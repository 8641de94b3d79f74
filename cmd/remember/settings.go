package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/remember/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change preferences",
}

var themeCmd = &cobra.Command{
	Use:       "theme [system|light|dark]",
	Short:     "Show or set the colour theme",
	Long:      `Without an argument, print the selected theme. With one, store it.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"system", "light", "dark"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if len(args) == 1 {
			theme, err := settings.ParseTheme(args[0])
			if err != nil {
				return err
			}
			if err := settings.SetTheme(cmd.Context(), dbConn, theme); err != nil {
				return err
			}
		}

		theme, err := settings.GetTheme(cmd.Context(), dbConn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme)
		return nil
	},
}

func initSettingsCmd() {
	settingsCmd.AddCommand(themeCmd)
}
