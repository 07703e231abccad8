package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/chatrelay"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ chatrelay.ImageGenerator = (*ImageClient)(nil)

// ImageClient implements [chatrelay.ImageGenerator] with an Imagen model.
type ImageClient struct {
	client *genai.Client
	model  string
	count  int
}

// NewImageClient creates an ImageClient with the given API key and options.
func NewImageClient(ctx context.Context, apiKey string, opts ...Option) (*ImageClient, error) {
	o := applyOptions(defaultImageModel, opts)
	gc, err := newGenaiClient(ctx, apiKey, o)
	if err != nil {
		return nil, err
	}
	return &ImageClient{client: gc, model: o.model, count: o.imageCount}, nil
}

// GenerateImages returns the encoded bytes of each generated image.
func (c *ImageClient) GenerateImages(ctx context.Context, prompt string) ([][]byte, error) {
	resp, err := c.client.Models.GenerateImages(ctx, c.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(c.count),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return CollectImages(resp)
}

// CollectImages extracts image bytes from a response, skipping entries the
// service filtered out. A response with no usable image is an error.
// Exported for testing.
func CollectImages(resp *genai.GenerateImagesResponse) ([][]byte, error) {
	if resp == nil {
		return nil, errors.New("gemini: empty image response")
	}
	var out [][]byte
	var filtered string
	for _, gi := range resp.GeneratedImages {
		if gi == nil {
			continue
		}
		if gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			if gi.RAIFilteredReason != "" {
				filtered = gi.RAIFilteredReason
			}
			continue
		}
		out = append(out, gi.Image.ImageBytes)
	}
	if len(out) == 0 {
		if filtered != "" {
			return nil, fmt.Errorf("gemini: image filtered: %s", filtered)
		}
		return nil, errors.New("gemini: no images in response")
	}
	return out, nil
}
