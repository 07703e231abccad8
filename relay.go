package chatrelay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rivo/uniseg"
)

// ImagePromptLimit is the number of characters of the text response forwarded
// to the image generator.
const ImagePromptLimit = 200

// imageKeywords trigger the image branch when found in the lower-cased prompt.
var imageKeywords = []string{"paint", "draw", "generate"}

// Relay forwards prompts to a text generator and, when the prompt asks for a
// picture, forwards the generated text to an image generator.
type Relay struct {
	text   TextGenerator
	images ImageGenerator
	logger *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithRelayLogger sets the logger used for provider failures.
func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = l }
}

// NewRelay creates a Relay. images may be nil, in which case image requests
// are answered with text only.
func NewRelay(text TextGenerator, images ImageGenerator, opts ...RelayOption) *Relay {
	r := &Relay{text: text, images: images, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Interact validates req, generates text and, if requested, images. Any
// provider failure fails the whole call with an error wrapping ErrProvider;
// partial results are never returned.
func (r *Relay) Interact(ctx context.Context, req InteractRequest) (InteractResponse, error) {
	if err := req.Validate(); err != nil {
		return InteractResponse{}, err
	}

	text, err := r.text.GenerateText(ctx, req.Input, req.TemperatureOrDefault())
	if err != nil {
		r.logger.ErrorContext(ctx, "text generation failed", "error", err)
		return InteractResponse{}, fmt.Errorf("generate text: %w: %w", ErrProvider, err)
	}

	resp := InteractResponse{Text: text}
	if !WantsImage(req.Input) || r.images == nil {
		return resp, nil
	}

	images, err := r.images.GenerateImages(ctx, ImagePrompt(text))
	if err != nil {
		r.logger.ErrorContext(ctx, "image generation failed", "error", err)
		return InteractResponse{}, fmt.Errorf("generate images: %w: %w", ErrProvider, err)
	}
	resp.Images = images
	return resp, nil
}

// WantsImage reports whether a prompt asks for an image.
func WantsImage(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, kw := range imageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ImagePrompt returns at most the first ImagePromptLimit user-perceived
// characters of text. Grapheme clusters are never split.
func ImagePrompt(text string) string {
	var (
		b     strings.Builder
		count int
		state = -1
	)
	rest := text
	for len(rest) > 0 && count < ImagePromptLimit {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		b.WriteString(cluster)
		count++
	}
	return b.String()
}
