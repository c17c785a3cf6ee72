package resilience

import (
	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket holding up to capacity tokens, refilled at
// refillPerSecond. Admission never waits.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(capacity int, refillPerSecond float64) *RateLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(refillPerSecond), capacity),
	}
}

// TryAcquire takes one token or fails with ErrRateLimited.
func (l *RateLimiter) TryAcquire() error {
	if !l.limiter.Allow() {
		return ErrRateLimited
	}
	return nil
}

// Tokens returns the number of tokens currently available.
func (l *RateLimiter) Tokens() float64 {
	return l.limiter.Tokens()
}
