package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fwojciec/chatrelay"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Interactor answers a validated prompt. *chatrelay.Relay implements it.
type Interactor interface {
	Interact(ctx context.Context, req chatrelay.InteractRequest) (chatrelay.InteractResponse, error)
}

// Server is the relay's HTTP handler.
type Server struct {
	relay    Interactor
	logger   *slog.Logger
	limiter  *RateLimiter
	tokens   []string
	origins  []string
	slots    *semaphore.Weighted
	upstream *rate.Limiter
	handler  http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger for requests and failures.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithRateLimiter replaces the default limiter of 10 requests per minute.
func WithRateLimiter(rl *RateLimiter) ServerOption {
	return func(s *Server) { s.limiter = rl }
}

// WithTokens requires one of tokens as a bearer credential on /interact.
func WithTokens(tokens ...string) ServerOption {
	return func(s *Server) { s.tokens = tokens }
}

// WithAllowedOrigins restricts CORS to origins. Without it any origin is
// allowed.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) { s.origins = origins }
}

// WithMaxInFlight caps concurrent provider calls at n. Requests beyond the
// cap wait for a slot until their context ends. Zero or less means no cap.
func WithMaxInFlight(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.slots = semaphore.NewWeighted(n)
		} else {
			s.slots = nil
		}
	}
}

// WithUpstreamRate paces provider calls across all clients to perSecond with
// the given burst. A request waits for a token until its context ends.
func WithUpstreamRate(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.upstream = rate.NewLimiter(rate.Limit(perSecond), burst)
		} else {
			s.upstream = nil
		}
	}
}

// NewServer creates a Server answering prompts with relay.
func NewServer(relay Interactor, opts ...ServerOption) *Server {
	s := &Server{relay: relay, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(DefaultRateLimit, DefaultRateWindow)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /interact", Auth(s.tokens, s.logger)(http.HandlerFunc(s.handleInteract)))

	// Every route shares the per-address budget; preflights are answered
	// by CORS before they reach the limiter.
	s.handler = Chain(
		Recover(s.logger),
		Logging(s.logger),
		CORS(s.origins),
		RateLimit(s.limiter, s.logger),
	)(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var body interactRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: input must be a string"})
		return
	}

	if s.slots != nil {
		if err := s.slots.Acquire(r.Context(), 1); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: BusyMessage})
			return
		}
		defer s.slots.Release(1)
	}
	if s.upstream != nil {
		if err := s.upstream.Wait(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: BusyMessage})
			return
		}
	}

	resp, err := s.relay.Interact(r.Context(), chatrelay.InteractRequest{
		Input:       body.Input,
		Temperature: body.Temperature,
	})
	switch {
	case errors.Is(err, chatrelay.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "interact failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: ProviderErrorMessage})
		return
	}

	images, err := encodeImages(resp.Images)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "encode images failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: ProviderErrorMessage})
		return
	}
	writeJSON(w, http.StatusOK, interactResponse{TextResponse: resp.Text, ImageResponse: images})
}
