package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/airport-gateway/internal/core/domain"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/resilience"
)

const maxBodyBytes = 1 << 20

// Timeouts bounds one HTTP exchange with an upstream.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
}

// DefaultTimeouts match the upstream SLAs the gateway was tuned against.
var DefaultTimeouts = Timeouts{
	Connect: 5 * time.Second,
	Read:    10 * time.Second,
}

// HTTPTransport fetches provider payloads over HTTP GET and classifies
// failures before they reach the resilience policies.
type HTTPTransport struct {
	name        string
	baseURL     string
	pathPattern string
	httpClient  *http.Client

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int

	Monitor *Monitor
}

// NewHTTPTransport creates a transport for baseURL. pathPattern is appended
// to the base URL with every "{icao}" replaced by the lookup key.
func NewHTTPTransport(name, baseURL, pathPattern string, timeouts Timeouts) *HTTPTransport {
	if timeouts.Connect <= 0 {
		timeouts.Connect = DefaultTimeouts.Connect
	}
	if timeouts.Read <= 0 {
		timeouts.Read = DefaultTimeouts.Read
	}

	return &HTTPTransport{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		pathPattern: pathPattern,
		httpClient: &http.Client{
			Timeout: timeouts.Connect + timeouts.Read,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   timeouts.Connect,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: timeouts.Read,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
		Monitor: NewMonitor(),
	}
}

// URL returns the request URL for key.
func (t *HTTPTransport) URL(key domain.LookupKey) string {
	path := strings.ReplaceAll(t.pathPattern, "{icao}", url.PathEscape(key.String()))
	return t.baseURL + path
}

// Fetch performs the GET and returns the body of a 200 response.
func (t *HTTPTransport) Fetch(ctx context.Context, key domain.LookupKey) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL(key), nil)
	if err != nil {
		return nil, &resilience.TransportError{
			Kind: resilience.KindPermanent,
			Err:  fmt.Errorf("create request: %w", err),
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.recordFailure()
		return nil, &resilience.TransportError{
			Kind: resilience.KindRetryable,
			Err:  fmt.Errorf("%s request: %w", t.name, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		t.recordFailure()
		return nil, &resilience.TransportError{
			Kind:   resilience.KindRetryable,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("read response: %w", err),
		}
	}

	latency := time.Since(start)
	t.Monitor.RecordRequest(latency)

	switch {
	case resp.StatusCode == http.StatusOK:
		t.recordSuccess(latency)
		return body, nil

	case resp.StatusCode == http.StatusNotFound:
		// Absence is an answer, not a fault.
		t.recordSuccess(latency)
		return nil, &resilience.TransportError{
			Kind:   resilience.KindNotFound,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s: %w", key, domain.ErrNotFound),
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		t.Monitor.RecordThrottle(resp.StatusCode, retryAfter)
		t.recordFailure()
		return nil, &resilience.TransportError{
			Kind:   resilience.KindPermanent,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("rate limited by upstream, retry after: %q", retryAfter),
		}

	case resp.StatusCode == http.StatusForbidden:
		t.Monitor.RecordThrottle(resp.StatusCode, "")
		t.recordFailure()
		return nil, &resilience.TransportError{
			Kind:   resilience.KindPermanent,
			Status: resp.StatusCode,
			Err:    errors.New("blocked by upstream"),
		}

	case resp.StatusCode >= 500:
		t.recordFailure()
		return nil, &resilience.TransportError{
			Kind:   resilience.KindRetryable,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("upstream error: %s", snippet(body)),
		}

	default:
		t.recordFailure()
		return nil, &resilience.TransportError{
			Kind:   resilience.KindPermanent,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected response: %s", snippet(body)),
		}
	}
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// Name returns the provider's name.
func (t *HTTPTransport) Name() string {
	return t.name
}

// GetHealth returns the transport's health status.
func (t *HTTPTransport) GetHealth() HealthStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := t.health
	stats := t.Monitor.Stats()
	h.MonitorStats = &stats
	return h
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) recordSuccess(latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.successCount++
	t.requestCount++
	t.totalLatency += latency
	t.health.LastSuccessAt = time.Now()
	t.health.Available = true

	t.health.ErrorRate = float64(t.failureCount) / float64(t.requestCount)
	t.health.Latency = t.totalLatency / time.Duration(t.successCount)
}

func (t *HTTPTransport) recordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failureCount++
	t.requestCount++
	t.health.LastFailureAt = time.Now()
	t.health.ErrorRate = float64(t.failureCount) / float64(t.requestCount)

	if t.health.ErrorRate > 0.5 {
		t.health.Available = false
	}
}
