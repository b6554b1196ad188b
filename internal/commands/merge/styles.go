package merge

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents the color theme for the TUI
type Theme struct {
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	Info      lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	TextDim   lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
}

// GruvboxTheme creates a Gruvbox-inspired theme
func GruvboxTheme() Theme {
	return Theme{
		Primary:   lipgloss.AdaptiveColor{Light: "#98971a", Dark: "#b8bb26"},
		Secondary: lipgloss.AdaptiveColor{Light: "#af3a03", Dark: "#fe8019"},
		Success:   lipgloss.AdaptiveColor{Light: "#98971a", Dark: "#b8bb26"},
		Warning:   lipgloss.AdaptiveColor{Light: "#d79921", Dark: "#fabd2f"},
		Error:     lipgloss.AdaptiveColor{Light: "#cc241d", Dark: "#fb4934"},
		Info:      lipgloss.AdaptiveColor{Light: "#458588", Dark: "#83a598"},
		Border:    lipgloss.AdaptiveColor{Light: "#d5c4a1", Dark: "#504945"},
		Text:      lipgloss.AdaptiveColor{Light: "#3c3836", Dark: "#fbf1c7"},
		TextDim:   lipgloss.AdaptiveColor{Light: "#7c6f64", Dark: "#a89984"},
		Highlight: lipgloss.AdaptiveColor{Light: "#d5c4a1", Dark: "#3c3836"},
	}
}

// Styles contains predefined styles for the TUI
type Styles struct {
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Paragraph lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Info      lipgloss.Style
	Spinner   lipgloss.Style
	StatusBar lipgloss.Style
	Cursor    lipgloss.Style
	Header    lipgloss.Style

	// Entry type badges
	NoChange lipgloss.Style
	Change   lipgloss.Style
	Add      lipgloss.Style
	DontAdd  lipgloss.Style
	Keep     lipgloss.Style

	// Inline diff
	Deleted  lipgloss.Style
	Inserted lipgloss.Style
}

// DefaultStyles returns default styles for the TUI
func DefaultStyles() Styles {
	theme := GruvboxTheme()

	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(theme.Text),
		Subtle:    lipgloss.NewStyle().Foreground(theme.TextDim),
		Paragraph: lipgloss.NewStyle().Foreground(theme.Text),
		Error:     lipgloss.NewStyle().Bold(true).Foreground(theme.Error),
		Success:   lipgloss.NewStyle().Bold(true).Foreground(theme.Success),
		Warning:   lipgloss.NewStyle().Bold(true).Foreground(theme.Warning),
		Info:      lipgloss.NewStyle().Bold(true).Foreground(theme.Info),
		Spinner:   lipgloss.NewStyle().Foreground(theme.Secondary),
		StatusBar: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			Background(theme.Highlight).
			PaddingLeft(1).
			PaddingRight(1),
		Cursor: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			PaddingLeft(1).
			PaddingRight(1),

		NoChange: lipgloss.NewStyle().Foreground(theme.TextDim),
		Change:   lipgloss.NewStyle().Bold(true).Foreground(theme.Warning),
		Add:      lipgloss.NewStyle().Bold(true).Foreground(theme.Success),
		DontAdd:  lipgloss.NewStyle().Foreground(theme.TextDim).Strikethrough(true),
		Keep:     lipgloss.NewStyle().Foreground(theme.Info),

		Deleted:  lipgloss.NewStyle().Foreground(theme.Error).Strikethrough(true),
		Inserted: lipgloss.NewStyle().Foreground(theme.Success).Underline(true),
	}
}
