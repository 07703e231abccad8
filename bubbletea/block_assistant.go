package bubbletea

import (
	"github.com/fwojciec/chatrelay"
	"github.com/fwojciec/chatrelay/goldmark"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders a response with markdown formatting. The rendering
// is cached per width.
type AssistantBlock struct {
	text  string
	theme chatrelay.Theme

	byWidth map[int]goldmark.Rendered
}

// NewAssistantBlock creates a block for a response.
func NewAssistantBlock(text string, theme chatrelay.Theme) *AssistantBlock {
	return &AssistantBlock{
		text:    text,
		theme:   theme,
		byWidth: make(map[int]goldmark.Rendered),
	}
}

func (b *AssistantBlock) View(width int) string {
	return b.render(width).Text
}

// Code returns the runnable code blocks of the response.
func (b *AssistantBlock) Code(width int) []goldmark.CodeBlock {
	return b.render(width).Code
}

func (b *AssistantBlock) render(width int) goldmark.Rendered {
	if r, ok := b.byWidth[width]; ok {
		return r
	}
	r := goldmark.Render(b.text, width, b.theme)
	b.byWidth[width] = r
	return r
}
