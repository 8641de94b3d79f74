package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/unowned-ai/remember/pkg/settings"
)

// swatch is a set of hex colours. The dark one is "Blue Moon" from https://gogh-co.github.io/Gogh/
type swatch struct {
	base, text, dim, accent, tag, highlight, danger, ok string
}

var (
	darkSwatch = swatch{
		base:      "#353b52",
		text:      "#ffffff",
		dim:       "#7a8299",
		accent:    "#89ddff",
		tag:       "#b9a3eb",
		highlight: "#acfab4",
		danger:    "#e61f44",
		ok:        "#b4c4b4",
	}
	lightSwatch = swatch{
		base:      "#e6e8ef",
		text:      "#1f2335",
		dim:       "#8990a3",
		accent:    "#1b6fa8",
		tag:       "#7847bd",
		highlight: "#2f8f46",
		danger:    "#c4203f",
		ok:        "#3d6b3d",
	}
)

type palette struct {
	base, text, dim, accent, tag, highlight, danger, ok lipgloss.TerminalColor
}

// paletteFor returns the colours for theme. System follows the terminal background.
func paletteFor(theme settings.Theme) palette {
	var color func(light, dark string) lipgloss.TerminalColor
	switch theme {
	case settings.ThemeLight:
		color = func(light, _ string) lipgloss.TerminalColor { return lipgloss.Color(light) }
	case settings.ThemeDark:
		color = func(_, dark string) lipgloss.TerminalColor { return lipgloss.Color(dark) }
	default:
		color = func(light, dark string) lipgloss.TerminalColor {
			return lipgloss.AdaptiveColor{Light: light, Dark: dark}
		}
	}
	l, d := lightSwatch, darkSwatch
	return palette{
		base:      color(l.base, d.base),
		text:      color(l.text, d.text),
		dim:       color(l.dim, d.dim),
		accent:    color(l.accent, d.accent),
		tag:       color(l.tag, d.tag),
		highlight: color(l.highlight, d.highlight),
		danger:    color(l.danger, d.danger),
		ok:        color(l.ok, d.ok),
	}
}

type styles struct {
	title       lipgloss.Style
	subtitle    lipgloss.Style
	dayHeader   lipgloss.Style
	item        lipgloss.Style
	placeholder lipgloss.Style
	selected    lipgloss.Style
	danger      lipgloss.Style
	dangerSel   lipgloss.Style
	tag         lipgloss.Style
	tagOn       lipgloss.Style
	label       lipgloss.Style
	status      lipgloss.Style
	errText     lipgloss.Style
	footer      lipgloss.Style
	panel       lipgloss.Style
}

func newStyles(theme settings.Theme) styles {
	p := paletteFor(theme)
	return styles{
		title: lipgloss.NewStyle().Bold(true).
			Foreground(p.accent).
			Background(p.base).
			Padding(0, 2).Align(lipgloss.Center),
		subtitle:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		dayHeader:   lipgloss.NewStyle().Bold(true).Foreground(p.tag),
		item:        lipgloss.NewStyle().Foreground(p.text),
		placeholder: lipgloss.NewStyle().Foreground(p.dim).Italic(true),
		selected:    lipgloss.NewStyle().Foreground(p.base).Background(p.highlight),
		danger:      lipgloss.NewStyle().Foreground(p.danger),
		dangerSel:   lipgloss.NewStyle().Foreground(p.base).Background(p.danger),
		tag:         lipgloss.NewStyle().Foreground(p.dim),
		tagOn:       lipgloss.NewStyle().Foreground(p.tag).Bold(true),
		label:       lipgloss.NewStyle().Foreground(p.accent),
		status:      lipgloss.NewStyle().Foreground(p.ok),
		errText:     lipgloss.NewStyle().Foreground(p.danger),
		footer:      lipgloss.NewStyle().Foreground(p.dim),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(p.base).
			Padding(0, 2),
	}
}
