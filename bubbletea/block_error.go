package bubbletea

import "github.com/charmbracelet/lipgloss"

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders the failure message of a turn.
type ErrorBlock struct {
	message string
	styles  Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(message string, styles Styles) *ErrorBlock {
	return &ErrorBlock{message: message, styles: styles}
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render("✗ " + b.message)
	return lipgloss.NewStyle().Width(width).Render(content)
}
