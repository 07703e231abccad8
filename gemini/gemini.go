// Package gemini implements [chatrelay.TextGenerator] and
// [chatrelay.ImageGenerator] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Text goes through
// Models.GenerateContent; images go through Models.GenerateImages (Imagen).
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "imagen-4.0-generate-001"
	defaultImageCount = 1
	defaultMaxTokens  = 8192
)

type options struct {
	model      string
	imageCount int
	maxTokens  int
	baseURL    string
}

// Option configures a [TextClient] or [ImageClient].
type Option func(*options)

// WithModel sets the model ID. TextClient defaults to gemini-2.5-flash,
// ImageClient to imagen-4.0-generate-001.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithImageCount sets how many images ImageClient requests per prompt.
func WithImageCount(n int) Option {
	return func(o *options) { o.imageCount = n }
}

// WithMaxTokens caps the length of generated text.
func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

func newGenaiClient(ctx context.Context, apiKey string, o options) (*genai.Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: o.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return gc, nil
}

func applyOptions(defaultModel string, opts []Option) options {
	o := options{model: defaultModel, imageCount: defaultImageCount, maxTokens: defaultMaxTokens}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
