package http

import (
	"context"
	"sync"
	"time"
)

// Defaults for the relay's per-address limit.
const (
	DefaultRateLimit  = 10
	DefaultRateWindow = time.Minute
)

// RateLimiter allows at most limit requests per key in each fixed window.
// A key's window starts with its first request. It is safe for concurrent use.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*rateWindow
	lastPrune time.Time
}

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateClock overrides time.Now.
func WithRateClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) { rl.now = now }
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*rateWindow),
	}
	for _, o := range opts {
		o(rl)
	}
	rl.lastPrune = rl.now()
	return rl
}

// Allow records a request for key. When the limit is exhausted it returns
// false and how long until the key's window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) >= rl.window {
		rl.pruneLocked(now)
	}

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.windows[key] = &rateWindow{start: now, count: 1}
		return true, 0
	}
	if w.count >= rl.limit {
		return false, w.start.Add(rl.window).Sub(now)
	}
	w.count++
	return true, 0
}

// Remaining returns how many requests key may still make in its window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok || rl.now().Sub(w.start) >= rl.window {
		return rl.limit
	}
	return max(rl.limit-w.count, 0)
}

// Limit returns the number of requests allowed per window.
func (rl *RateLimiter) Limit() int { return rl.limit }

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Prune drops keys whose window has expired.
func (rl *RateLimiter) Prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.pruneLocked(rl.now())
}

// Run prunes expired keys every window until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune()
		}
	}
}

func (rl *RateLimiter) pruneLocked(now time.Time) {
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, key)
		}
	}
	rl.lastPrune = now
}
