// Package aviation provides a resilient multi-provider airport lookup.
//
// Each configured provider becomes a Strategy: an HTTP transport and a
// schema normalizer behind its own bulkhead, rate limiter, circuit breaker
// and retry policy. A Gateway tries strategies by ascending priority.
//
// # Quick Start
//
//	cfg, _ := config.Load("config.yaml")
//	gw, strategies, err := aviation.NewGateway(cfg.Providers)
//	rec, err := gw.Lookup(ctx, "KJFK")
//
// # Package Structure
//
//   - provider/   - transports, schemas, monitor, Strategy
//   - resilience/ - breaker, retry, rate limiter, bulkhead, Outcome
//   - routing/    - Gateway failover and fallback
//
// Most types are re-exported at the root level for convenience.
package aviation

import (
	"fmt"
	"strings"

	"github.com/vietddude/airport-gateway/internal/core/config"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/provider"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/resilience"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/routing"
)

// =============================================================================
// Re-exported types
// =============================================================================

type (
	Strategy         = provider.Strategy
	StrategyHealth   = provider.StrategyHealth
	Gateway          = routing.Gateway
	UnavailableError = routing.UnavailableError
	Outcome          = resilience.Outcome
	BreakerState     = resilience.State
)

const (
	StateClosed   = resilience.StateClosed
	StateHalfOpen = resilience.StateHalfOpen
	StateOpen     = resilience.StateOpen
)

// =============================================================================
// Constructors
// =============================================================================

// NewStrategy builds one provider strategy from its configuration.
func NewStrategy(cfg config.ProviderConfig) (*provider.Strategy, error) {
	schema, ok := provider.LookupSchema(cfg.Schema)
	if !ok {
		return nil, fmt.Errorf("provider %s: unknown schema %q", cfg.Name, cfg.Schema)
	}

	path := cfg.Path
	if path == "" {
		path = schema.DefaultPath
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	transport := provider.NewHTTPTransport(cfg.Name, baseURL, path, provider.Timeouts{
		Connect: cfg.Timeouts.Connect,
		Read:    cfg.Timeouts.Read,
	})

	return provider.NewStrategy(provider.StrategyConfig{
		Name:       cfg.Name,
		Priority:   cfg.Priority,
		Endpoint:   baseURL + path,
		Transport:  transport,
		Normalizer: schema.Normalize,
		Policies: provider.Policies{
			Breaker: resilience.BreakerConfig{
				WindowSize:       cfg.CircuitBreaker.WindowSize,
				FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
				CoolDown:         cfg.CircuitBreaker.CoolDown,
				HalfOpenProbes:   cfg.CircuitBreaker.HalfOpenProbes,
			},
			Retry: resilience.RetryConfig{
				MaxAttempts: cfg.Retry.MaxAttempts,
				BaseDelay:   cfg.Retry.BaseDelay,
				Multiplier:  cfg.Retry.Multiplier,
				MaxDelay:    cfg.Retry.MaxDelay,
			},
			RateLimit: provider.RateLimitConfig{
				Capacity:        cfg.RateLimit.Capacity,
				RefillPerSecond: cfg.RateLimit.RefillPerSecond,
			},
			MaxInFlight: cfg.Bulkhead.MaxConcurrent,
		},
	}), nil
}

// NewGateway builds a strategy per provider and a gateway over them. The
// strategies are returned in priority order for health reporting.
func NewGateway(providers []config.ProviderConfig) (*routing.Gateway, []*provider.Strategy, error) {
	strategies := make([]*provider.Strategy, 0, len(providers))
	members := make([]routing.Strategy, 0, len(providers))

	for _, p := range providers {
		s, err := NewStrategy(p)
		if err != nil {
			return nil, nil, err
		}
		strategies = append(strategies, s)
		members = append(members, s)
	}

	gw, err := routing.NewGateway(members...)
	if err != nil {
		return nil, nil, err
	}

	ordered := make([]*provider.Strategy, 0, len(strategies))
	for _, s := range gw.Strategies() {
		ordered = append(ordered, s.(*provider.Strategy))
	}
	return gw, ordered, nil
}
