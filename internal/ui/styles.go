package ui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2BB3A3")).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2BB3A3")).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	ChangedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7FD8BE")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22C55E")).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			MarginTop(1)

	PreviewBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6B7280"))

	PreviewHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#2BB3A3")).
				Bold(true).
				Padding(0, 1)

	PreviewCellStyle = lipgloss.NewStyle().
				Padding(0, 1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2BB3A3")).
			Padding(1, 2)
)
