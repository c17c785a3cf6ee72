package provider

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Status is the observed condition of an upstream.
type Status int

const (
	StatusHealthy   Status = iota // responding normally
	StatusDegraded                // slow but responding
	StatusThrottled               // answering 429
	StatusBlocked                 // answering 403
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats struct {
	Status           Status        `json:"status"`
	AverageLatency   time.Duration `json:"average_latency"`
	ThrottleCount429 int           `json:"throttle_count_429"`
	ThrottleCount403 int           `json:"throttle_count_403"`
	RequestsLastHour int           `json:"requests_last_hour"`
	RetryAfter       time.Duration `json:"retry_after,omitempty"`
}

// Monitor tracks upstream latency and throttling signals. It is
// observational; admission is decided by the resilience policies.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	status429Count   int
	status403Count   int
	lastThrottleTime time.Time
	retryAfter       time.Duration

	requestTimestamps []time.Time
	requestWindow     time.Duration

	slowResponseThreshold time.Duration
	throttledAfter        int
}

// NewMonitor creates a monitor with default thresholds.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:       make([]time.Duration, 0, 100),
		maxLatencyWindow:      100,
		requestWindow:         time.Hour,
		slowResponseThreshold: 3 * time.Second,
		throttledAfter:        3,
	}
}

// RecordRequest records a completed request with its latency.
func (m *Monitor) RecordRequest(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}

	m.requestTimestamps = append(m.requestTimestamps, now)

	cutoff := now.Add(-m.requestWindow)
	i := 0
	for i < len(m.requestTimestamps) && !m.requestTimestamps[i].After(cutoff) {
		i++
	}
	m.requestTimestamps = m.requestTimestamps[i:]
}

// RecordThrottle records a 429 or 403 response. retryAfter is the raw
// Retry-After header, in seconds when present.
func (m *Monitor) RecordThrottle(statusCode int, retryAfter string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastThrottleTime = time.Now()

	switch statusCode {
	case http.StatusTooManyRequests:
		m.status429Count++
		m.retryAfter = time.Minute
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			m.retryAfter = time.Duration(secs) * time.Second
		}
	case http.StatusForbidden:
		m.status403Count++
		m.retryAfter = 10 * time.Minute
	}
}

// CheckStatus returns the current status of the provider.
func (m *Monitor) CheckStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	throttled := time.Since(m.lastThrottleTime) < m.retryAfter

	if m.status403Count > 0 && throttled {
		return StatusBlocked
	}
	if m.status429Count >= m.throttledAfter && throttled {
		return StatusThrottled
	}
	if len(m.recentLatencies) > 10 && m.averageLatencyLocked() > m.slowResponseThreshold {
		return StatusDegraded
	}
	return StatusHealthy
}

func (m *Monitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}

	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// AverageLatency returns the average latency of recent requests.
func (m *Monitor) AverageLatency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.averageLatencyLocked()
}

// RequestCount returns the number of requests within the last d, up to
// the tracking window.
func (m *Monitor) RequestCount(d time.Duration) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCountLocked(d)
}

func (m *Monitor) requestCountLocked(d time.Duration) int {
	cutoff := time.Now().Add(-d)
	count := 0
	for _, t := range m.requestTimestamps {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}

// Stats returns current monitoring statistics.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := MonitorStats{
		Status:           m.statusLocked(),
		AverageLatency:   m.averageLatencyLocked(),
		ThrottleCount429: m.status429Count,
		ThrottleCount403: m.status403Count,
		RequestsLastHour: m.requestCountLocked(time.Hour),
	}
	if remaining := m.retryAfter - time.Since(m.lastThrottleTime); remaining > 0 {
		stats.RetryAfter = remaining
	}
	return stats
}
