package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/chatrelay"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ chatrelay.TextGenerator = (*TextClient)(nil)

// TextClient implements [chatrelay.TextGenerator] with a Gemini text model.
type TextClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewTextClient creates a TextClient with the given API key and options.
func NewTextClient(ctx context.Context, apiKey string, opts ...Option) (*TextClient, error) {
	o := applyOptions(defaultTextModel, opts)
	gc, err := newGenaiClient(ctx, apiKey, o)
	if err != nil {
		return nil, err
	}
	return &TextClient{client: gc, model: o.model, maxTokens: o.maxTokens}, nil
}

// GenerateText sends prompt as a single user turn.
func (c *TextClient) GenerateText(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), BuildTextConfig(temperature, c.maxTokens))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return ResponseText(resp)
}

// BuildTextConfig returns the generation config for a request.
// Exported for testing.
func BuildTextConfig(temperature float64, maxTokens int) *genai.GenerateContentConfig {
	temp := float32(temperature)
	return &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(maxTokens),
	}
}

// ResponseText extracts the answer text. A response blocked by safety
// filters, or one with no text at all, is an error.
// Exported for testing.
func ResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini: empty response")
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", fb.BlockReason)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		reason := ""
		if len(resp.Candidates) > 0 {
			reason = string(resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("gemini: no text in response (finish reason %q)", reason)
	}
	return text, nil
}
