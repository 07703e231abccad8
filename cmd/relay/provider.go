package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/chatrelay"
	"github.com/fwojciec/chatrelay/anthropic"
	"github.com/fwojciec/chatrelay/gemini"
)

// resolveTextProvider selects and constructs the text provider. Without an
// explicit choice the provider is detected from which API key is set.
func resolveTextProvider(ctx context.Context, cfg config) (chatrelay.TextGenerator, error) {
	provider := cfg.TextProvider
	if provider == "" {
		hasAnthropic := cfg.AnthropicKey != ""
		hasGemini := cfg.GeminiKey != ""
		switch {
		case hasAnthropic && hasGemini:
			return nil, errors.New("multiple API keys found (ANTHROPIC_API_KEY, GEMINI_API_KEY): set RELAY_TEXT_PROVIDER to select")
		case hasAnthropic:
			provider = "anthropic"
		case hasGemini:
			provider = "gemini"
		default:
			return nil, errors.New("no API key found: set ANTHROPIC_API_KEY or GEMINI_API_KEY")
		}
	}

	switch provider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY not set")
		}
		var opts []anthropic.Option
		if cfg.TextModel != "" {
			opts = append(opts, anthropic.WithModel(cfg.TextModel))
		}
		if cfg.MaxTokens > 0 {
			opts = append(opts, anthropic.WithMaxTokens(cfg.MaxTokens))
		}
		return anthropic.New(cfg.AnthropicKey, opts...), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, errors.New("GEMINI_API_KEY not set")
		}
		var opts []gemini.Option
		if cfg.TextModel != "" {
			opts = append(opts, gemini.WithModel(cfg.TextModel))
		}
		if cfg.MaxTokens > 0 {
			opts = append(opts, gemini.WithMaxTokens(cfg.MaxTokens))
		}
		client, err := gemini.NewTextClient(ctx, cfg.GeminiKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be \"anthropic\" or \"gemini\"", provider)
	}
}

// resolveImageProvider constructs the image provider. Images need a Gemini
// key; without one it returns nil and the relay answers with text only.
func resolveImageProvider(ctx context.Context, cfg config) (chatrelay.ImageGenerator, error) {
	if cfg.GeminiKey == "" {
		return nil, nil
	}
	opts := []gemini.Option{gemini.WithImageCount(cfg.ImageCount)}
	if cfg.ImageModel != "" {
		opts = append(opts, gemini.WithModel(cfg.ImageModel))
	}
	client, err := gemini.NewImageClient(ctx, cfg.GeminiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini images: %w", err)
	}
	return client, nil
}
