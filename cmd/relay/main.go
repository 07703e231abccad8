// Command relay serves the chat relay over HTTP.
//
// Configuration is read from the environment:
//
//	RELAY_ADDR             listen address (default :8080)
//	RELAY_TEXT_PROVIDER    gemini or anthropic (auto-detected from API keys if unset)
//	GEMINI_API_KEY         Gemini key; also enables image generation
//	ANTHROPIC_API_KEY      Anthropic key
//	RELAY_TEXT_MODEL       text model (provider default if unset)
//	RELAY_IMAGE_MODEL      image model (provider default if unset)
//	RELAY_RATE_LIMIT       requests per window per client (default 10)
//	RELAY_RATE_WINDOW      rate window (default 1m)
//	RELAY_MAX_IN_FLIGHT    concurrent provider calls (default 32)
//	RELAY_UPSTREAM_RPS     provider calls per second across clients; 0 disables
//	RELAY_TOKENS           comma-separated bearer tokens; empty disables auth
//	RELAY_CORS_ORIGINS     comma-separated allowed origins; empty allows any
//	LOG_LEVEL              debug, info, warn or error (default info)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fwojciec/chatrelay"
	chathttp "github.com/fwojciec/chatrelay/http"
	"golang.org/x/sync/errgroup"
)

type config struct {
	Addr            string        `env:"RELAY_ADDR" envDefault:":8080"`
	TextProvider    string        `env:"RELAY_TEXT_PROVIDER"`
	GeminiKey       string        `env:"GEMINI_API_KEY"`
	AnthropicKey    string        `env:"ANTHROPIC_API_KEY"`
	TextModel       string        `env:"RELAY_TEXT_MODEL"`
	ImageModel      string        `env:"RELAY_IMAGE_MODEL"`
	ImageCount      int           `env:"RELAY_IMAGE_COUNT" envDefault:"1"`
	MaxTokens       int           `env:"RELAY_MAX_TOKENS" envDefault:"8192"`
	RateLimit       int           `env:"RELAY_RATE_LIMIT" envDefault:"10"`
	RateWindow      time.Duration `env:"RELAY_RATE_WINDOW" envDefault:"1m"`
	MaxInFlight     int64         `env:"RELAY_MAX_IN_FLIGHT" envDefault:"32"`
	UpstreamRPS     float64       `env:"RELAY_UPSTREAM_RPS"`
	UpstreamBurst   int           `env:"RELAY_UPSTREAM_BURST" envDefault:"5"`
	Tokens          []string      `env:"RELAY_TOKENS" envSeparator:","`
	CORSOrigins     []string      `env:"RELAY_CORS_ORIGINS" envSeparator:","`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"RELAY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// loadConfig parses configuration from environ.
func loadConfig(environ map[string]string) (config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RateLimit <= 0 || cfg.RateWindow <= 0 {
		return config{}, errors.New("parse config: RELAY_RATE_LIMIT and RELAY_RATE_WINDOW must be positive")
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, env.ToMap(os.Environ()), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, environ map[string]string, logOut io.Writer) error {
	cfg, err := loadConfig(environ)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: cfg.LogLevel}))

	text, err := resolveTextProvider(ctx, cfg)
	if err != nil {
		return err
	}
	images, err := resolveImageProvider(ctx, cfg)
	if err != nil {
		return err
	}
	if images == nil {
		logger.Warn("image generation disabled: GEMINI_API_KEY not set")
	}

	relay := chatrelay.NewRelay(text, images, chatrelay.WithRelayLogger(logger))
	limiter := chathttp.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	handler := chathttp.NewServer(relay,
		chathttp.WithLogger(logger),
		chathttp.WithRateLimiter(limiter),
		chathttp.WithTokens(cfg.Tokens...),
		chathttp.WithAllowedOrigins(cfg.CORSOrigins...),
		chathttp.WithMaxInFlight(cfg.MaxInFlight),
		chathttp.WithUpstreamRate(cfg.UpstreamRPS, cfg.UpstreamBurst),
	)
	if len(cfg.Tokens) == 0 {
		logger.Warn("bearer auth disabled: RELAY_TOKENS not set")
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("relay listening", "addr", ln.Addr().String(), "provider", cfg.TextProvider)
	return serve(ctx, srv, ln, limiter, cfg.ShutdownTimeout, logger)
}

// serve runs srv on ln and the limiter's pruning loop until ctx ends, then
// shuts the server down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, limiter *chathttp.RateLimiter, timeout time.Duration, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
