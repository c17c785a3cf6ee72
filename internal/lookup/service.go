// Package lookup is the calling layer in front of the provider gateway:
// key normalization and result caching.
package lookup

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/vietddude/airport-gateway/internal/core/domain"
	"github.com/vietddude/airport-gateway/internal/metrics"
)

// Gateway resolves a normalized key against the upstream providers.
type Gateway interface {
	Lookup(ctx context.Context, key domain.LookupKey) (domain.Airport, error)
}

// Service validates raw airport codes and serves lookups, caching live
// records.
type Service struct {
	gateway Gateway
	cache   *expirable.LRU[domain.LookupKey, domain.Airport]
}

// Option configures a Service.
type Option func(*Service)

// WithCache keeps up to size records for ttl.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = expirable.NewLRU[domain.LookupKey, domain.Airport](size, nil, ttl)
	}
}

// NewService creates a lookup service. Without WithCache every call goes
// to the gateway.
func NewService(gateway Gateway, opts ...Option) *Service {
	s := &Service{gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get normalizes raw and returns its airport record. Errors match
// domain.ErrInvalidInput, domain.ErrNotFound or domain.ErrUnavailable.
func (s *Service) Get(ctx context.Context, raw string) (domain.Airport, error) {
	key, err := domain.NormalizeKey(raw)
	if err != nil {
		return domain.Airport{}, err
	}

	if s.cache != nil {
		if rec, ok := s.cache.Get(key); ok {
			metrics.CacheHits.Inc()
			return rec, nil
		}
		metrics.CacheMisses.Inc()
	}

	rec, err := s.gateway.Lookup(ctx, key)
	if err != nil {
		return domain.Airport{}, err
	}

	// Fallback records describe an outage, not the airport.
	if s.cache != nil && !rec.Degraded {
		s.cache.Add(key, rec)
	}
	return rec, nil
}
