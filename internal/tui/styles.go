package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Tab bar
	TabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC")).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7")).
			Padding(0, 1)

	// Editor pane
	LineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	CursorStyle = lipgloss.NewStyle().Reverse(true)

	// Status style for info messages
	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#959595"))

	StatusModeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7")).
			Padding(0, 1)

	// Error style for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#81A1C1"))

	// Preview
	HeadingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7B61FF"))

	TopHeadingStyle = HeadingStyle.
			Underline(true)

	QuoteStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#959595"))

	CodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D08770"))

	CodeBlockStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#626262"))

	LinkStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#81A1C1"))

	RuleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)
