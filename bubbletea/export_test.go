package bubbletea

import "github.com/fwojciec/chatrelay/goldmark"

// ModeName returns the name of the model's current mode.
func ModeName(m Model) string {
	return [...]string{"chat", "history", "edit", "login", "viewer"}[m.mode]
}

// Focus returns the index of the user turn being edited.
func Focus(m Model) int { return m.focus }

// Code returns the runnable code blocks of the rendered transcript.
func Code(m Model) []goldmark.CodeBlock { return m.code }

// ImageIndex returns the image shown by the viewer.
func ImageIndex(m Model) int { return m.imageIndex }
