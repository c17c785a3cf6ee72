package resilience

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Multiplier:  2.0,
	MaxDelay:    5 * time.Second,
}

// RetryPolicy re-attempts retryable failures with exponential backoff.
// Not-found and permanent outcomes are returned on the first attempt.
type RetryPolicy struct {
	name    string
	cfg     RetryConfig
	onRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryPolicy creates a retry policy. onRetry may be nil.
func NewRetryPolicy(
	name string,
	cfg RetryConfig,
	onRetry func(attempt int, delay time.Duration, err error),
) *RetryPolicy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return &RetryPolicy{name: name, cfg: cfg, onRetry: onRetry}
}

// Execute runs call until it yields a non-retryable outcome or the attempt
// budget is spent, in which case the last retryable outcome is returned.
// The wait between attempts only blocks the calling goroutine.
func (p *RetryPolicy) Execute(ctx context.Context, call func(context.Context) Outcome) Outcome {
	var (
		last     Outcome
		attempts int
	)

	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if attempts >= p.cfg.MaxAttempts {
			return 0, true
		}

		delay := p.Delay(attempts)
		slog.Debug("Retrying provider call",
			"provider", p.name,
			"attempt", attempts+1,
			"delay", delay,
			"error", last.Err,
		)
		if p.onRetry != nil {
			p.onRetry(attempts+1, delay, last.Err)
		}
		return delay, false
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		last = call(ctx)
		if last.Kind == KindRetryable {
			return retry.RetryableError(last.Err)
		}
		return nil
	})

	if err != nil && attempts == 0 {
		return Retryable(err)
	}
	return last
}

// Delay returns the wait before retry number n (1-based):
// base*multiplier^(n-1) plus jitter in [0, base), capped at MaxDelay.
func (p *RetryPolicy) Delay(n int) time.Duration {
	delay := float64(p.cfg.BaseDelay) * math.Pow(p.cfg.Multiplier, float64(n-1))
	if p.cfg.BaseDelay > 0 {
		delay += float64(rand.N(p.cfg.BaseDelay))
	}
	if p.cfg.MaxDelay > 0 && delay > float64(p.cfg.MaxDelay) {
		delay = float64(p.cfg.MaxDelay)
	}
	return time.Duration(delay)
}
