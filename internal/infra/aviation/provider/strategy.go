package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/airport-gateway/internal/core/domain"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/resilience"
	"github.com/vietddude/airport-gateway/internal/metrics"
)

// RateLimitConfig configures a provider's token bucket.
type RateLimitConfig struct {
	Capacity        int
	RefillPerSecond float64
}

// Policies groups the resilience settings of one strategy.
type Policies struct {
	Breaker     resilience.BreakerConfig
	Retry       resilience.RetryConfig
	RateLimit   RateLimitConfig
	MaxInFlight int
}

// StrategyConfig describes one upstream provider.
type StrategyConfig struct {
	Name       string
	Priority   int
	Endpoint   string
	Transport  Transport
	Normalizer Normalizer
	Policies   Policies
}

// Strategy binds a provider's transport and normalizer to its own breaker,
// retry policy, rate limiter and bulkhead. None of its state is shared with
// other strategies.
type Strategy struct {
	name      string
	priority  int
	endpoint  string
	transport Transport
	normalize Normalizer

	bulkhead *resilience.Bulkhead
	limiter  *resilience.RateLimiter
	breaker  *resilience.Breaker
	retry    *resilience.RetryPolicy
}

// NewStrategy builds a strategy with freshly initialised policy state.
func NewStrategy(cfg StrategyConfig) *Strategy {
	name := cfg.Name
	s := &Strategy{
		name:      name,
		priority:  cfg.Priority,
		endpoint:  cfg.Endpoint,
		transport: cfg.Transport,
		normalize: cfg.Normalizer,
		bulkhead:  resilience.NewBulkhead(cfg.Policies.MaxInFlight),
		limiter: resilience.NewRateLimiter(
			cfg.Policies.RateLimit.Capacity,
			cfg.Policies.RateLimit.RefillPerSecond,
		),
		breaker: resilience.NewBreaker(name, cfg.Policies.Breaker, logTransition),
		retry: resilience.NewRetryPolicy(name, cfg.Policies.Retry,
			func(attempt int, delay time.Duration, err error) {
				metrics.RetryAttempts.WithLabelValues(name).Inc()
			},
		),
	}
	metrics.CircuitState.WithLabelValues(name).Set(0)
	return s
}

func logTransition(name string, from, to resilience.State) {
	metrics.CircuitTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	metrics.CircuitState.WithLabelValues(name).Set(float64(to))

	if to == resilience.StateOpen {
		slog.Warn("Circuit breaker opened", "provider", name, "from", from.String())
		return
	}
	slog.Info("Circuit breaker transition", "provider", name, "from", from.String(), "to", to.String())
}

func (s *Strategy) Name() string     { return s.name }
func (s *Strategy) Priority() int    { return s.priority }
func (s *Strategy) Endpoint() string { return s.endpoint }

// Breaker exposes the strategy's circuit breaker for health reporting.
func (s *Strategy) Breaker() *resilience.Breaker { return s.breaker }

// Execute runs one lookup through bulkhead, rate limiter, circuit breaker
// and retry policy, in that order. The bulkhead slot is released on every
// exit path and the breaker always learns the outcome of a permitted call.
func (s *Strategy) Execute(ctx context.Context, key domain.LookupKey) resilience.Outcome {
	if err := s.bulkhead.TryEnter(); err != nil {
		return s.reject(resilience.RejectBulkheadFull)
	}
	defer s.bulkhead.Leave()

	if err := s.limiter.TryAcquire(); err != nil {
		return s.reject(resilience.RejectRateLimited)
	}

	permit, err := s.breaker.Attempt()
	if err != nil {
		return s.reject(resilience.RejectCircuitOpen)
	}

	start := time.Now()
	outcome := s.retry.Execute(ctx, func(ctx context.Context) resilience.Outcome {
		return s.call(ctx, key)
	})
	permit.Record(!outcome.CountsAsFailure())

	metrics.ProviderLatency.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	metrics.ProviderCallsTotal.WithLabelValues(s.name, outcome.Kind.String()).Inc()

	return outcome
}

func (s *Strategy) reject(reason resilience.RejectReason) resilience.Outcome {
	metrics.AdmissionRejections.WithLabelValues(s.name, reason.String()).Inc()
	return resilience.Rejected(reason)
}

// call performs one transport round trip and normalizes the payload.
func (s *Strategy) call(ctx context.Context, key domain.LookupKey) (out resilience.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Provider call panicked", "provider", s.name, "key", key, "panic", r)
			out = resilience.Permanent(fmt.Errorf("provider %s: panic: %v", s.name, r))
		}
	}()

	payload, err := s.transport.Fetch(ctx, key)
	if err != nil {
		return resilience.FromError(fmt.Errorf("provider %s: %w", s.name, err))
	}

	rec, err := s.normalize(payload, key)
	if errors.Is(err, domain.ErrNotFound) {
		return resilience.NotFound()
	}
	if err != nil {
		return resilience.Permanent(fmt.Errorf("provider %s: %w", s.name, err))
	}

	return resilience.Success(rec)
}

// StrategyHealth is a point-in-time view of one strategy.
type StrategyHealth struct {
	Name            string                     `json:"name"`
	Priority        int                        `json:"priority"`
	Endpoint        string                     `json:"endpoint,omitempty"`
	Breaker         resilience.BreakerSnapshot `json:"breaker"`
	InFlight        int                        `json:"in_flight"`
	MaxInFlight     int                        `json:"max_in_flight"`
	TokensAvailable float64                    `json:"tokens_available"`
	Transport       *HealthStatus              `json:"transport,omitempty"`
}

// Health reports the strategy's policy state and, when available, the
// transport's own health.
func (s *Strategy) Health() StrategyHealth {
	h := StrategyHealth{
		Name:            s.name,
		Priority:        s.priority,
		Endpoint:        s.endpoint,
		Breaker:         s.breaker.Snapshot(),
		InFlight:        s.bulkhead.InFlight(),
		MaxInFlight:     s.bulkhead.Capacity(),
		TokensAvailable: s.limiter.Tokens(),
	}
	if hr, ok := s.transport.(HealthReporter); ok {
		th := hr.GetHealth()
		h.Transport = &th
	}
	return h
}
