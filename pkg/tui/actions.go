package tui

import (
	"context"
	"database/sql"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/unowned-ai/remember/pkg/editor"
	"github.com/unowned-ai/remember/pkg/settings"
)

type themeLoadedMsg settings.Theme

type photoLoadedMsg editor.PhotoLoaded

// Load the stored theme
func loadTheme(db *sql.DB) tea.Cmd {
	return func() tea.Msg {
		theme, err := settings.GetTheme(context.Background(), db)
		if err != nil {
			return err
		}
		return themeLoadedMsg(theme)
	}
}

// Read the picked photo off the UI goroutine
func loadPhoto(req editor.PhotoRequest) tea.Cmd {
	return func() tea.Msg {
		return photoLoadedMsg(editor.LoadPhoto(req))
	}
}

// Get database file path
func getDbFile(db *sql.DB) string {
	var name, file string
	if err := db.QueryRow(`PRAGMA database_list`).Scan(new(int), &name, &file); err != nil {
		return ""
	}
	return file
}
