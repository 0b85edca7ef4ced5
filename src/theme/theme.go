// Package theme holds the terminal palette and renders graph progress and
// transcripts for the CLI.
package theme

import "github.com/charmbracelet/lipgloss"

// Palette represents a color theme
type Palette struct {
	Primary   lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

// CurrentTheme is the palette used by NewStyles.
var CurrentTheme = Palette{
	Primary:   lipgloss.Color("#00ff00"),
	Text:      lipgloss.Color("#ffffff"),
	TextMuted: lipgloss.Color("#808080"),
	Warning:   lipgloss.Color("#ffaf00"),
	Error:     lipgloss.Color("#ff5f5f"),
}

// SetTheme sets the current theme
func SetTheme(p Palette) {
	CurrentTheme = p
}

// Styles are the rendered text styles derived from a palette.
type Styles struct {
	Agent    lipgloss.Style
	Human    lipgloss.Style
	Muted    lipgloss.Style
	Node     lipgloss.Style
	Question lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// NewStyles builds styles from the current theme. With color disabled every
// style renders plain text.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{plain, plain, plain, plain, plain, plain, plain}
	}
	p := CurrentTheme
	return Styles{
		Agent:    lipgloss.NewStyle().Foreground(p.Text),
		Human:    lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(p.TextMuted),
		Node:     lipgloss.NewStyle().Foreground(p.Primary),
		Question: lipgloss.NewStyle().Foreground(p.Warning).Bold(true),
		Warning:  lipgloss.NewStyle().Foreground(p.Warning),
		Error:    lipgloss.NewStyle().Foreground(p.Error),
	}
}
