package remote

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limits configures the client-side rate limiter
type Limits struct {
	PerWindow   int           // requests allowed per window
	Window      time.Duration // window length
	MinInterval time.Duration // minimum spacing between requests
}

// DefaultLimits stays under typical hosted PostgREST quotas
var DefaultLimits = Limits{
	PerWindow:   300,
	Window:      time.Minute,
	MinInterval: 20 * time.Millisecond,
}

// RateLimiter spaces requests and caps them per window
type RateLimiter struct {
	mu sync.Mutex

	limit    int
	usage    int
	window   time.Duration
	resetsAt time.Time

	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a rate limiter with the given limits
func NewRateLimiter(l Limits) *RateLimiter {
	if l.Window <= 0 {
		l.Window = DefaultLimits.Window
	}
	if l.PerWindow <= 0 {
		l.PerWindow = DefaultLimits.PerWindow
	}
	return &RateLimiter{
		limit:       l.PerWindow,
		window:      l.Window,
		resetsAt:    time.Now().Add(l.Window),
		minInterval: l.MinInterval,
	}
}

// Wait blocks until a request can be made without exceeding the limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	// Reset window if expired
	if now.After(r.resetsAt) {
		r.usage = 0
		r.resetsAt = now.Add(r.window)
	}

	if r.usage >= r.limit {
		waitTime := time.Until(r.resetsAt)
		r.mu.Unlock()
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			r.mu.Lock()
			return ctx.Err()
		}
		r.mu.Lock()
		r.usage = 0
		r.resetsAt = time.Now().Add(r.window)
	}

	// Enforce minimum interval between requests
	elapsed := time.Since(r.lastRequest)
	if elapsed < r.minInterval {
		waitTime := r.minInterval - elapsed
		r.mu.Unlock()
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			r.mu.Lock()
			return ctx.Err()
		}
		r.mu.Lock()
	}

	r.usage++
	r.lastRequest = time.Now()

	return nil
}

// UpdateFromHeaders syncs usage with X-RateLimit-Limit / X-RateLimit-Remaining
// when the backend reports them
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit, err := strconv.Atoi(h.Get("X-RateLimit-Limit")); err == nil && limit > 0 {
		r.limit = limit
	}
	if remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining")); err == nil && remaining >= 0 {
		if used := r.limit - remaining; used > r.usage {
			r.usage = used
		}
	}
}

// Status returns the requests left in the current window
func (r *RateLimiter) Status() (remaining int, resetsAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit - r.usage, r.resetsAt
}
