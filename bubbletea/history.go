package bubbletea

import (
	"strings"

	"github.com/fwojciec/chatrelay"
	"github.com/mattn/go-runewidth"
)

// HistoryHint is the key legend of the history drawer.
const HistoryHint = "enter open · n new chat · x clear all · esc close"

// renderHistory draws the history drawer with the entry at cursor
// highlighted. Titles are truncated to one line.
func renderHistory(sessions []chatrelay.Session, cursor, width int, styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Accent.Render("History"))
	b.WriteString("\n\n")
	if len(sessions) == 0 {
		b.WriteString(styles.Muted.Render("No saved chats"))
	}
	for i, s := range sessions {
		title := strings.Join(strings.Fields(s.Title()), " ")
		title = runewidth.Truncate(title, max(width-2, 1), "…")
		if i == cursor {
			b.WriteString(styles.Accent.Render("▸ " + title))
		} else {
			b.WriteString("  " + title)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(HistoryHint))
	return b.String()
}
