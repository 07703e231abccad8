package bubbletea

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Thumbnail bounds for images rendered inline in the transcript.
const (
	ThumbnailWidth = 24
	ThumbnailRows  = 12
)

// halfBlock paints the top pixel as foreground and the bottom pixel as
// background, so one cell holds two vertically stacked pixels.
const halfBlock = "▀"

// RenderImage draws an encoded PNG, JPEG or GIF as half-block cells no wider
// than width columns and no taller than rows lines, keeping the aspect ratio.
func RenderImage(data []byte, width, rows int) (string, error) {
	if width <= 0 || rows <= 0 {
		return "", errors.New("image bounds must be positive")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", errors.New("image is empty")
	}

	w := min(width, b.Dx())
	h := max(b.Dy()*w/b.Dx(), 1)
	if h > rows*2 {
		h = rows * 2
		w = max(b.Dx()*h/b.Dy(), 1)
	}

	sample := func(x, y int) lipgloss.Color {
		c := img.At(b.Min.X+x*b.Dx()/w, b.Min.Y+y*b.Dy()/h)
		r, g, bl, _ := c.RGBA()
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, bl>>8))
	}

	var out strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			out.WriteString("\n")
		}
		for x := range w {
			cell := lipgloss.NewStyle().Foreground(sample(x, y))
			if y+1 < h {
				cell = cell.Background(sample(x, y+1))
			}
			out.WriteString(cell.Render(halfBlock))
		}
	}
	return out.String(), nil
}
