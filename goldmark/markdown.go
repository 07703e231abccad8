// Package goldmark renders markdown text to ANSI-styled terminal output
// using goldmark for parsing, lipgloss for styling and chroma for code
// highlighting.
package goldmark

import "github.com/fwojciec/chatrelay"

// CodeBlock is a fenced code block that carries a language tag. Such blocks
// are highlighted and offered to the user as runnable snippets.
type CodeBlock struct {
	Language string
	Source   string
}

// Rendered is the output of Render.
type Rendered struct {
	// Text is the styled output.
	Text string
	// Code lists runnable blocks in document order. The label rendered above
	// block i reads "▶ run i+1".
	Code []CodeBlock
}

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width; code blocks keep their
// lines. A link shows its label with a reference number, and the URL follows
// the block, broken at any character so it never overflows width.
func Render(source string, width int, theme chatrelay.Theme) Rendered {
	if source == "" {
		return Rendered{}
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme, []byte(source))
	return Rendered{Text: r.render(width), Code: r.code}
}
