package api

import (
	"sync"
	"time"
)

// RateLimiter implements a sliding window rate limiter per session
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	mu          sync.Mutex
	requests    map[string][]time.Time
}

// NewRateLimiter creates a new rate limiter allowing maxRequests per window.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
	}
}

// prune drops timestamps outside the window. Caller holds r.mu.
func (r *RateLimiter) prune(key string, now time.Time) []time.Time {
	history := r.requests[key]
	cutoff := now.Add(-r.window)
	valid := history[:0]
	for _, t := range history {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(r.requests, key)
		return nil
	}
	r.requests[key] = valid
	return valid
}

// Allow records a request for key and reports whether it is within limits.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	valid := r.prune(key, now)
	if len(valid) >= r.maxRequests {
		return false
	}
	r.requests[key] = append(valid, now)
	return true
}

// RemainingCooldown returns the duration until the next request is allowed.
func (r *RateLimiter) RemainingCooldown(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	valid := r.prune(key, now)
	if len(valid) < r.maxRequests {
		return 0
	}

	remaining := valid[0].Add(r.window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Forget clears the history for key.
func (r *RateLimiter) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requests, key)
}
