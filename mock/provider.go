// Package mock provides test doubles for chatrelay interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/chatrelay"
)

// Interface compliance checks.
var (
	_ chatrelay.TextGenerator  = (*TextGenerator)(nil)
	_ chatrelay.ImageGenerator = (*ImageGenerator)(nil)
	_ chatrelay.RelayClient    = (*RelayClient)(nil)
	_ chatrelay.Authenticator  = (*Authenticator)(nil)
)

// TextGenerator is a test double for chatrelay.TextGenerator.
// Set GenerateTextFn before calling GenerateText.
type TextGenerator struct {
	GenerateTextFn func(ctx context.Context, prompt string, temperature float64) (string, error)
}

// GenerateText delegates to GenerateTextFn.
func (g *TextGenerator) GenerateText(ctx context.Context, prompt string, temperature float64) (string, error) {
	return g.GenerateTextFn(ctx, prompt, temperature)
}

// ImageGenerator is a test double for chatrelay.ImageGenerator.
type ImageGenerator struct {
	GenerateImagesFn func(ctx context.Context, prompt string) ([][]byte, error)
}

// GenerateImages delegates to GenerateImagesFn.
func (g *ImageGenerator) GenerateImages(ctx context.Context, prompt string) ([][]byte, error) {
	return g.GenerateImagesFn(ctx, prompt)
}

// RelayClient is a test double for chatrelay.RelayClient.
type RelayClient struct {
	InteractFn func(ctx context.Context, token string, req chatrelay.InteractRequest) (chatrelay.InteractResponse, error)
}

// Interact delegates to InteractFn.
func (c *RelayClient) Interact(ctx context.Context, token string, req chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
	return c.InteractFn(ctx, token, req)
}

// Authenticator is a test double for chatrelay.Authenticator.
type Authenticator struct {
	LoginFn func(ctx context.Context, email, password string) (chatrelay.Credential, error)
}

// Login delegates to LoginFn.
func (a *Authenticator) Login(ctx context.Context, email, password string) (chatrelay.Credential, error) {
	return a.LoginFn(ctx, email, password)
}
