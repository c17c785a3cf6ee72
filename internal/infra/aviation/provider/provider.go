// Package provider implements the upstream airport data providers.
//
// This package contains:
//   - Transport: raw payload fetch from one upstream
//   - HTTPTransport: JSON over HTTP implementation with classification
//   - Schema: per-provider payload normalizers
//   - Monitor: latency, throttle and error-rate tracking
//   - Strategy: transport + normalizer + resilience policies for one provider
package provider

import (
	"context"
	"time"

	"github.com/vietddude/airport-gateway/internal/core/domain"
)

// Transport fetches the raw payload for a key from one upstream.
// Failures should be *resilience.TransportError where the cause is known.
type Transport interface {
	Fetch(ctx context.Context, key domain.LookupKey) ([]byte, error)
}

// HealthReporter is implemented by transports that track call health.
type HealthReporter interface {
	GetHealth() HealthStatus
}

// HealthStatus represents the health state of a provider transport.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
