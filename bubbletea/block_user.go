package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatrelay"
)

var _ MessageBlock = (*UserTurnBlock)(nil)

// UserTurnBlock renders a user submission with a "> " prefix, followed by its
// attachment: a glyph and file name, or an inline preview for images.
type UserTurnBlock struct {
	text       string
	attachment *chatrelay.Attachment
	focused    bool
	styles     Styles
}

// NewUserTurnBlock creates a UserTurnBlock. A focused block is highlighted as
// the target of an edit.
func NewUserTurnBlock(text string, attachment *chatrelay.Attachment, focused bool, styles Styles) *UserTurnBlock {
	return &UserTurnBlock{text: text, attachment: attachment, focused: focused, styles: styles}
}

func (b *UserTurnBlock) View(width int) string {
	prefix := b.styles.UserMsg.Render("> ")
	text := b.text
	if b.focused {
		prefix = b.styles.Accent.Render("✎ ")
		text = b.styles.Focused.Render(text)
	}
	out := lipgloss.NewStyle().Width(width).Render(prefix + text)
	if b.attachment != nil {
		out += "\n" + b.attachmentView(width)
	}
	return out
}

func (b *UserTurnBlock) attachmentView(width int) string {
	a := b.attachment
	if a.Kind() == chatrelay.AttachmentImage {
		if preview, err := RenderImage(a.Data, min(width, ThumbnailWidth), ThumbnailRows); err == nil {
			return preview + "\n" + b.styles.Muted.Render(a.Name)
		}
	}
	glyph := a.Glyph()
	if glyph == "" {
		glyph = "📁"
	}
	return b.styles.Attachment.Render(glyph + " " + a.Name)
}
