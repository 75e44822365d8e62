package status

import "github.com/charmbracelet/lipgloss"

// Theme is the palette used for styled status output.
type Theme struct {
	Name string

	Red    lipgloss.Color
	Peach  lipgloss.Color
	Yellow lipgloss.Color
	Green  lipgloss.Color
	Blue   lipgloss.Color
	Mauve  lipgloss.Color

	Text     lipgloss.Color
	Subtext  lipgloss.Color
	Overlay0 lipgloss.Color
	Surface  lipgloss.Color
	Base     lipgloss.Color
}

// Mocha returns the Catppuccin Mocha palette.
func Mocha() Theme {
	return Theme{
		Name:     "Catppuccin Mocha",
		Red:      lipgloss.Color("#f38ba8"),
		Peach:    lipgloss.Color("#fab387"),
		Yellow:   lipgloss.Color("#f9e2af"),
		Green:    lipgloss.Color("#a6e3a1"),
		Blue:     lipgloss.Color("#89b4fa"),
		Mauve:    lipgloss.Color("#cba6f7"),
		Text:     lipgloss.Color("#cdd6f4"),
		Subtext:  lipgloss.Color("#a6adc8"),
		Overlay0: lipgloss.Color("#6c7086"),
		Surface:  lipgloss.Color("#313244"),
		Base:     lipgloss.Color("#1e1e2e"),
	}
}

type styles struct {
	title    lipgloss.Style
	rule     lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	warning  lipgloss.Style
	heading  lipgloss.Style
	blocked  lipgloss.Style
	disabled lipgloss.Style
	allowed  lipgloss.Style
	hint     lipgloss.Style
	badge    lipgloss.Style
}

// newStyles builds the render styles. Unstyled output uses zero styles, which
// render their input unchanged.
func newStyles(t Theme, styled bool) styles {
	if !styled {
		return styles{}
	}
	return styles{
		title:    lipgloss.NewStyle().Foreground(t.Mauve).Bold(true),
		rule:     lipgloss.NewStyle().Foreground(t.Overlay0),
		label:    lipgloss.NewStyle().Foreground(t.Subtext),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		warning:  lipgloss.NewStyle().Foreground(t.Peach).Bold(true),
		heading:  lipgloss.NewStyle().Foreground(t.Blue).Bold(true),
		blocked:  lipgloss.NewStyle().Foreground(t.Red),
		disabled: lipgloss.NewStyle().Foreground(t.Overlay0).Strikethrough(true),
		allowed:  lipgloss.NewStyle().Foreground(t.Green),
		hint:     lipgloss.NewStyle().Foreground(t.Subtext).Italic(true),
		badge:    lipgloss.NewStyle().Bold(true).Padding(0, 1),
	}
}

// modeBadge renders text on a background keyed by mode severity.
func (s styles) modeBadge(t Theme, mode string, styled bool, text string) string {
	if !styled {
		return text
	}
	var bg lipgloss.Color
	switch mode {
	case "block":
		bg = t.Red
	case "warn":
		bg = t.Yellow
	case "allow":
		bg = t.Green
	default:
		bg = t.Surface
	}
	return s.badge.Foreground(t.Base).Background(bg).Render(text)
}
