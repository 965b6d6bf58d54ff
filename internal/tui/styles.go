package tui

import (
	"sentiment-desk/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor   = lipgloss.Color("#7C3AED")
	positiveColor = lipgloss.Color("#10B981")
	negativeColor = lipgloss.Color("#EF4444")
	neutralColor  = lipgloss.Color("#9CA3AF")
	borderColor   = lipgloss.Color("#374151")
	mutedColor    = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1).
			Width(24)

	cardLabelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	cardValueStyle = lipgloss.NewStyle().Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle = lipgloss.NewStyle().Foreground(negativeColor).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
)

func labelColor(label domain.SentimentLabel) lipgloss.Color {
	switch label {
	case domain.SentimentPositive:
		return positiveColor
	case domain.SentimentNegative:
		return negativeColor
	default:
		return neutralColor
	}
}
