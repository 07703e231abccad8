package bubbletea

var _ MessageBlock = (*LoadingBlock)(nil)

// LoadingText is shown in place of the response while it is in flight.
const LoadingText = "● ● ● waiting for response"

// LoadingBlock renders the in-flight indicator.
type LoadingBlock struct {
	styles Styles
}

// NewLoadingBlock creates a LoadingBlock.
func NewLoadingBlock(styles Styles) *LoadingBlock {
	return &LoadingBlock{styles: styles}
}

func (b *LoadingBlock) View(width int) string {
	return b.styles.Muted.Render(LoadingText)
}
