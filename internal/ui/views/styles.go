package views

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("63")
	ColorSuccess = lipgloss.Color("42")
	ColorError   = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("241")
	ColorWarning = lipgloss.Color("214")

	UserMessageStyle      = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	AssistantMessageStyle = lipgloss.NewStyle()
	ToolMessageStyle      = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	ToolErrorStyle        = lipgloss.NewStyle().Foreground(ColorError)
	SystemMessageStyle    = lipgloss.NewStyle().Foreground(ColorWarning)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	StatusDefaultStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	StatusThinkingStyle  = lipgloss.NewStyle().Foreground(ColorPrimary)
	StatusExecutingStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	StatusDoneStyle      = lipgloss.NewStyle().Foreground(ColorSuccess)
	StatusErrorStyle     = lipgloss.NewStyle().Foreground(ColorError)

	PopupBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)
