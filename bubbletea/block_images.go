package bubbletea

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*ImagesBlock)(nil)

// ImagesBlock renders generated images as numbered thumbnails side by side.
type ImagesBlock struct {
	images [][]byte
	styles Styles
}

// NewImagesBlock creates an ImagesBlock.
func NewImagesBlock(images [][]byte, styles Styles) *ImagesBlock {
	return &ImagesBlock{images: images, styles: styles}
}

func (b *ImagesBlock) View(width int) string {
	if len(b.images) == 0 {
		return ""
	}
	thumbWidth := min(ThumbnailWidth, max(width/len(b.images)-1, 1))
	var cells []string
	for i, img := range b.images {
		label := b.styles.Muted.Render(fmt.Sprintf("[%d]", i+1))
		thumb, err := RenderImage(img, thumbWidth, ThumbnailRows)
		if err != nil {
			thumb = b.styles.Error.Render("unreadable image")
		}
		if i > 0 {
			cells = append(cells, " ")
		}
		cells = append(cells, lipgloss.JoinVertical(lipgloss.Left, thumb, label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}
