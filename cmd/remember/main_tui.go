//go:build tui

package main

import (
	"github.com/spf13/cobra"
	"github.com/unowned-ai/remember/pkg/tui"
	"go.uber.org/zap"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show terminal UI",
	Long:  `Browse, add and edit contacts in an interactive terminal UI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := location()
		if err != nil {
			return err
		}
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		return tui.ShowTUI(dbConn, zap.L(), loc)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
