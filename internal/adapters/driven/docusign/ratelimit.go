package docusign

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit stays well under the platform's hourly API quota
// while keeping a bulk import responsive.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10}

// defaultBackoff applies when a 429 carries no usable Retry-After.
const defaultBackoff = 60 * time.Second

// RateLimiter is a token bucket with a backoff window set by 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent. During a backoff window it
// waits for the window to end first.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := retryAt.Sub(r.now()); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return r.limiter.Wait(ctx)
}

// RecordRateLimit starts a backoff window from a Retry-After header value,
// given either in seconds or as an HTTP date.
func (r *RateLimiter) RecordRateLimit(retryAfter string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	backoff := defaultBackoff
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		backoff = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(retryAfter); err == nil && at.After(now) {
		backoff = at.Sub(now)
	}

	r.retryAt = now.Add(backoff)
	return backoff
}

// BackoffRemaining returns how long the current backoff window still runs.
func (r *RateLimiter) BackoffRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d := r.retryAt.Sub(r.now()); d > 0 {
		return d
	}
	return 0
}
