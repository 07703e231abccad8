package bubbletea_test

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatrelay"
	bt "github.com/fwojciec/chatrelay/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestNewStyles(t *testing.T) {
	t.Parallel()

	theme := chatrelay.DefaultTheme()
	styles := bt.NewStyles(theme)

	assert.Equal(t, lipgloss.Color("4"), styles.UserMsg.GetForeground())
	assert.True(t, styles.UserMsg.GetBold())

	assert.Equal(t, lipgloss.Color("6"), styles.Assistant.GetForeground())
	assert.Equal(t, lipgloss.Color("3"), styles.Attachment.GetForeground())
	assert.Equal(t, lipgloss.Color("1"), styles.Error.GetForeground())
	assert.Equal(t, lipgloss.Color("2"), styles.Success.GetForeground())

	assert.Equal(t, lipgloss.Color("8"), styles.Muted.GetForeground())
	assert.True(t, styles.Muted.GetFaint())

	assert.Equal(t, lipgloss.Color("5"), styles.Accent.GetForeground())
	assert.True(t, styles.Accent.GetBold())

	assert.Equal(t, lipgloss.Color("0"), styles.Focused.GetBackground())
	assert.Equal(t, theme, styles.Theme())
}

func TestNewStylesNegativeIndexYieldsNoColor(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(chatrelay.Theme{UserMsg: -1})

	assert.Equal(t, lipgloss.NoColor{}, styles.UserMsg.GetForeground())
}
