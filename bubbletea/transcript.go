package bubbletea

import (
	"strings"

	"github.com/fwojciec/chatrelay"
	"github.com/fwojciec/chatrelay/goldmark"
)

// Transcript is the rendered form of a session's turns.
type Transcript struct {
	View string
	// Code lists every runnable code block in turn order.
	Code []goldmark.CodeBlock
}

// RenderTranscript renders turns to terminal text. It is a pure function of
// its arguments. The loading line appears only under the last turn, and only
// while that turn is pending and a response is in flight.
func RenderTranscript(turns []chatrelay.Turn, responding bool, width int, styles Styles) Transcript {
	return renderTranscript(turns, responding, width, styles, -1)
}

// renderTranscript is RenderTranscript with the user turn at focus marked
// for editing.
func renderTranscript(turns []chatrelay.Turn, responding bool, width int, styles Styles, focus int) Transcript {
	var t Transcript
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		blocks := []MessageBlock{NewUserTurnBlock(turn.User, turn.Attachment, i == focus, styles)}
		switch turn.Status {
		case chatrelay.TurnPending:
			if responding && i == len(turns)-1 {
				blocks = append(blocks, NewLoadingBlock(styles))
			}
		case chatrelay.TurnFailed:
			blocks = append(blocks, NewErrorBlock(turn.Error, styles))
		case chatrelay.TurnFulfilled:
			if turn.Assistant != "" {
				ab := NewAssistantBlock(turn.Assistant, styles.Theme())
				t.Code = append(t.Code, ab.Code(width)...)
				blocks = append(blocks, ab)
			}
			if len(turn.Images) > 0 {
				blocks = append(blocks, NewImagesBlock(turn.Images, styles))
			}
		}
		for j, block := range blocks {
			if j > 0 {
				b.WriteString("\n")
			}
			b.WriteString(block.View(width))
		}
	}
	t.View = b.String()
	return t
}
