// Package settings holds user preferences. It has no effect on contact data.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ThemeKey is the preferences key the theme is stored under.
const ThemeKey = "selectedTheme"

// Theme is the colour scheme selection. Its integer values are persisted.
type Theme int

const (
	ThemeSystem Theme = iota
	ThemeLight
	ThemeDark
)

// Themes lists every selectable theme in menu order.
var Themes = []Theme{ThemeSystem, ThemeLight, ThemeDark}

// String returns the display name. Unknown values render as System.
func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "Light"
	case ThemeDark:
		return "Dark"
	default:
		return "System"
	}
}

// Valid reports whether t is one of Themes.
func (t Theme) Valid() bool {
	return t >= ThemeSystem && t <= ThemeDark
}

// Next cycles to the following theme.
func (t Theme) Next() Theme {
	return Theme((int(t) + 1) % len(Themes))
}

// ParseTheme accepts a display name (any case) or the stored integer.
func ParseTheme(s string) (Theme, error) {
	s = strings.TrimSpace(s)
	for _, t := range Themes {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Theme(n).Valid() {
		return Theme(n), nil
	}
	return ThemeSystem, fmt.Errorf("unknown theme %q (want system, light or dark)", s)
}

const (
	getPreferenceStatement = `SELECT value FROM preferences WHERE key = ?`

	setPreferenceStatement = `
	INSERT INTO preferences (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()
	`
)

// GetTheme returns the stored theme, or ThemeSystem when none was chosen yet.
// A stored value outside the known range also reads as ThemeSystem.
func GetTheme(ctx context.Context, db *sql.DB) (Theme, error) {
	var raw string
	err := db.QueryRowContext(ctx, getPreferenceStatement, ThemeKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ThemeSystem, nil
	}
	if err != nil {
		return ThemeSystem, fmt.Errorf("failed to read preference %s: %w", ThemeKey, err)
	}

	n, err := strconv.Atoi(raw)
	if err != nil || !Theme(n).Valid() {
		return ThemeSystem, nil
	}
	return Theme(n), nil
}

// SetTheme persists the theme selection.
func SetTheme(ctx context.Context, db *sql.DB, theme Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("invalid theme value %d", int(theme))
	}
	if _, err := db.ExecContext(ctx, setPreferenceStatement, ThemeKey, strconv.Itoa(int(theme))); err != nil {
		return fmt.Errorf("failed to store preference %s: %w", ThemeKey, err)
	}
	return nil
}
