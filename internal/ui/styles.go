package ui

import "github.com/charmbracelet/lipgloss"

// Palette: dark slate with a soft teal accent.
var (
	ColorBase    = lipgloss.Color("#1B2024")
	ColorSurface = lipgloss.Color("#262E33")
	ColorStripe  = lipgloss.Color("#20272B")
	ColorMuted   = lipgloss.Color("#7D8B91")
	ColorText    = lipgloss.Color("#DCE4E6")
	ColorAccent  = lipgloss.Color("#6FB3AE")
	ColorGreen   = lipgloss.Color("#9ED29A")
	ColorRed     = lipgloss.Color("#EE8A92")
	ColorYellow  = lipgloss.Color("#EFD59A")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func boxed(border lipgloss.Color, vpad, hpad int) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(border).
		Padding(vpad, hpad)
}

// banner is a one-line bar with a rule above or below it.
func banner(c lipgloss.Color, top bool) lipgloss.Style {
	s := fg(c).Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted)
	if top {
		return s.BorderTop(true)
	}
	return s.BorderBottom(true)
}

var (
	HeaderStyle = fg(ColorAccent).Bold(true).Padding(0, 1)
	TitleStyle  = banner(ColorAccent, false).Bold(true)
	FooterStyle = banner(ColorMuted, true)

	BreadcrumbStyle       = fg(ColorMuted)
	BreadcrumbActiveStyle = fg(ColorAccent)
	StatusBarStyle        = fg(ColorMuted).Padding(0, 1)

	TableHeaderStyle = fg(ColorAccent).Background(ColorSurface).Bold(true).Padding(0, 1)
	SelectedRowStyle = fg(ColorBase).Background(ColorAccent)
	NormalRowStyle   = fg(ColorText)
	EmptyStateStyle  = fg(ColorMuted).Italic(true).Padding(2, 4)

	LabelStyle    = fg(ColorAccent).Bold(true)
	HelpKeyStyle  = fg(ColorAccent)
	HelpDescStyle = fg(ColorMuted)

	ErrorStyle   = fg(ColorRed).Padding(0, 1)
	SuccessStyle = fg(ColorGreen).Padding(0, 1)
	WarningStyle = fg(ColorYellow).Padding(0, 1)

	PanelStyle            = boxed(ColorMuted, 1, 2)
	InputBorderStyle      = boxed(ColorMuted, 0, 1)
	ActiveInputStyle      = boxed(ColorAccent, 0, 1)
	DropdownStyle         = boxed(ColorAccent, 0, 1)
	DropdownSelectedStyle = fg(ColorBase).Background(ColorAccent)
)
