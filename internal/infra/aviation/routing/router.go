// Package routing drives ordered failover across provider strategies.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vietddude/airport-gateway/internal/core/domain"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/resilience"
	"github.com/vietddude/airport-gateway/internal/metrics"
)

// Strategy is one provider behind its resilience policies.
type Strategy interface {
	Name() string
	Priority() int
	Execute(ctx context.Context, key domain.LookupKey) resilience.Outcome
}

// UnavailableError is returned when no strategy produced an answer.
// It matches domain.ErrUnavailable and the last cause seen.
type UnavailableError struct {
	Key   domain.LookupKey
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %v", e.Key, domain.ErrUnavailable)
	}
	return fmt.Sprintf("%s: %v: %v", e.Key, domain.ErrUnavailable, e.Cause)
}

func (e *UnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{domain.ErrUnavailable}
	}
	return []error{domain.ErrUnavailable, e.Cause}
}

// Gateway tries strategies in ascending priority until one answers.
type Gateway struct {
	strategies []Strategy
}

// NewGateway orders strategies by priority. Equal priorities keep the
// order they were given in.
func NewGateway(strategies ...Strategy) (*Gateway, error) {
	if len(strategies) == 0 {
		return nil, errors.New("gateway needs at least one strategy")
	}

	ordered := make([]Strategy, len(strategies))
	copy(ordered, strategies)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	return &Gateway{strategies: ordered}, nil
}

// Strategies returns the strategies in the order they are tried.
func (g *Gateway) Strategies() []Strategy {
	out := make([]Strategy, len(g.strategies))
	copy(out, g.strategies)
	return out
}

// Lookup returns the first record any strategy produces.
//
// A not-found answer ends the search. When every strategy is rejected by
// an open circuit a degraded fallback record is returned instead of an
// error. Any other exhaustion fails with *UnavailableError wrapping the
// last cause.
func (g *Gateway) Lookup(ctx context.Context, key domain.LookupKey) (domain.Airport, error) {
	var (
		lastErr     error
		circuitOpen int
	)

	for _, s := range g.strategies {
		outcome, err := g.execute(ctx, s, key)
		if err != nil {
			metrics.LookupsTotal.WithLabelValues("abandoned").Inc()
			slog.Debug("Lookup abandoned", "key", key, "provider", s.Name(), "error", err)
			return domain.Airport{}, &UnavailableError{Key: key, Cause: err}
		}

		switch outcome.Kind {
		case resilience.KindSuccess:
			metrics.LookupsTotal.WithLabelValues("success").Inc()
			slog.Debug("Lookup served", "key", key, "provider", s.Name())
			return outcome.Airport, nil

		case resilience.KindNotFound:
			metrics.LookupsTotal.WithLabelValues("not_found").Inc()
			return domain.Airport{}, fmt.Errorf("%s (provider %s): %w", key, s.Name(), domain.ErrNotFound)

		case resilience.KindRejected:
			if outcome.Reason == resilience.RejectCircuitOpen {
				circuitOpen++
			} else {
				lastErr = fmt.Errorf("provider %s: %w", s.Name(), outcome.Err)
			}
			slog.Debug("Provider rejected call", "key", key, "provider", s.Name(), "reason", outcome.Reason.String())

		default:
			lastErr = outcome.Err
			slog.Warn("Provider failed, failing over",
				"key", key,
				"provider", s.Name(),
				"outcome", outcome.Kind.String(),
				"error", outcome.Err,
			)
		}
	}

	if circuitOpen == len(g.strategies) {
		metrics.LookupsTotal.WithLabelValues("fallback").Inc()
		metrics.FallbacksTotal.Inc()
		slog.Warn("All provider circuits open, serving fallback record", "key", key)
		return domain.FallbackAirport(key), nil
	}

	metrics.LookupsTotal.WithLabelValues("unavailable").Inc()
	return domain.Airport{}, &UnavailableError{Key: key, Cause: lastErr}
}

// execute runs one strategy detached from the caller's cancellation so that
// an abandoned call still completes and reports to its breaker. Only the
// wait is cut short when ctx ends.
func (g *Gateway) execute(
	ctx context.Context,
	s Strategy,
	key domain.LookupKey,
) (resilience.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return resilience.Outcome{}, err
	}

	done := make(chan resilience.Outcome, 1)
	go func() {
		done <- s.Execute(context.WithoutCancel(ctx), key)
	}()

	select {
	case outcome := <-done:
		return outcome, nil
	case <-ctx.Done():
		return resilience.Outcome{}, ctx.Err()
	}
}
