package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LookupsTotal tracks gateway lookups by final result
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_lookups_total",
			Help: "Total number of airport lookups",
		},
		[]string{"result"},
	)

	// ProviderCallsTotal tracks strategy executions by outcome
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_provider_calls_total",
			Help: "Total number of provider calls",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderLatency tracks provider call latency including retries
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_provider_latency_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// AdmissionRejections tracks calls refused by circuit, rate limiter or bulkhead
	AdmissionRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_admission_rejections_total",
			Help: "Total number of provider calls rejected before reaching the provider",
		},
		[]string{"provider", "reason"},
	)

	// CircuitState is 0 closed, 1 half-open, 2 open
	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_circuit_state",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	// CircuitTransitions tracks breaker state changes
	CircuitTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_circuit_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"provider", "from", "to"},
	)

	// RetryAttempts tracks re-attempts after retryable failures
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_retry_attempts_total",
			Help: "Total number of provider call retries",
		},
		[]string{"provider"},
	)

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_cache_hits_total",
		Help: "Total number of lookups served from cache",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_cache_misses_total",
		Help: "Total number of lookups not found in cache",
	})

	// FallbacksTotal tracks degraded records served while every circuit was open
	FallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_fallbacks_total",
		Help: "Total number of fallback records served",
	})
)
