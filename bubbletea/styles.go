package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatrelay"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg    lipgloss.Style
	Assistant  lipgloss.Style
	Attachment lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Muted      lipgloss.Style
	Accent     lipgloss.Style
	Focused    lipgloss.Style
	Modal      lipgloss.Style

	theme chatrelay.Theme
}

// NewStyles creates Styles from a Theme.
func NewStyles(t chatrelay.Theme) Styles {
	return Styles{
		UserMsg:    lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		Assistant:  lipgloss.NewStyle().Foreground(ansiColor(t.Assistant)).Bold(true),
		Attachment: lipgloss.NewStyle().Foreground(ansiColor(t.Attachment)),
		Error:      lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:    lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:      lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:     lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Focused:    lipgloss.NewStyle().Background(ansiColor(t.CodeBg)).Foreground(ansiColor(t.Accent)),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ansiColor(t.Accent)).
			Padding(1, 2),
		theme: t,
	}
}

// Theme returns the theme the styles were built from.
func (s Styles) Theme() chatrelay.Theme { return s.theme }

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
