package aviation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/airport-gateway/internal/core/config"
	"github.com/vietddude/airport-gateway/internal/core/domain"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/provider"
)

// upstream is a scripted provider endpoint.
type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

func newUpstream(t *testing.T, handler func(hit int32, w http.ResponseWriter, r *http.Request)) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(u.hits.Add(1), w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func status(code int) func(int32, http.ResponseWriter, *http.Request) {
	return func(_ int32, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	}
}

func body(payload string) func(int32, http.ResponseWriter, *http.Request) {
	return func(_ int32, w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}
}

const (
	primaryBody   = `[{"icaoId":"KJFK","iataId":"JFK","name":"New York/John F Kennedy Intl","country":"US","lat":40.64,"lon":-73.78,"elev":13}]`
	secondaryBody = `{"code":"KJFK","iata":"JFK","airportName":"John F Kennedy International Airport","cityName":"New York","countryName":"United States","elevationFt":13}`
	tertiaryBody  = `{"icao":"KJFK","iata_code":"JFK","full_name":"John F. Kennedy International","city":"New York","country_code":"US","elevation_meters":100}`
)

func providerConfig(name, schema string, priority int, baseURL string) config.ProviderConfig {
	s, _ := provider.LookupSchema(schema)
	return config.ProviderConfig{
		Name:     name,
		Schema:   schema,
		Priority: priority,
		BaseURL:  baseURL,
		Path:     s.DefaultPath,
		CircuitBreaker: config.CircuitBreakerConfig{
			WindowSize:       2,
			FailureThreshold: 0.5,
			CoolDown:         time.Minute,
			HalfOpenProbes:   1,
		},
		Retry: config.RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   time.Millisecond,
			Multiplier:  2,
			MaxDelay:    5 * time.Millisecond,
		},
		RateLimit: config.RateLimitConfig{Capacity: 100, RefillPerSecond: 100},
		Bulkhead:  config.BulkheadConfig{MaxConcurrent: 10},
		Timeouts:  config.TimeoutConfig{Connect: time.Second, Read: time.Second},
	}
}

func newGateway(t *testing.T, primary, secondary, tertiary *upstream) (*Gateway, []*Strategy) {
	t.Helper()
	gw, strategies, err := NewGateway([]config.ProviderConfig{
		providerConfig("openaviation", provider.SchemaOpenAviation, 3, tertiary.URL),
		providerConfig("aviationweather", provider.SchemaAviationWeather, 1, primary.URL),
		providerConfig("airportdirectory", provider.SchemaAirportDirectory, 2, secondary.URL),
	})
	require.NoError(t, err)
	return gw, strategies
}

func TestNewGateway_PriorityOrder(t *testing.T) {
	u := newUpstream(t, status(http.StatusOK))
	_, strategies := newGateway(t, u, u, u)

	require.Len(t, strategies, 3)
	assert.Equal(t, "aviationweather", strategies[0].Name())
	assert.Equal(t, "airportdirectory", strategies[1].Name())
	assert.Equal(t, "openaviation", strategies[2].Name())
}

func TestNewStrategy_EndpointTrimsBaseURL(t *testing.T) {
	s, err := NewStrategy(providerConfig("directory", provider.SchemaAirportDirectory, 1, "http://airports.local/"))
	require.NoError(t, err)

	assert.Equal(t, "http://airports.local/api/airports/{icao}", s.Endpoint())
}

func TestNewStrategy_UnknownSchema(t *testing.T) {
	_, err := NewStrategy(config.ProviderConfig{Name: "x", Schema: "soap"})
	assert.Error(t, err)
}

func TestLookup_PrimaryRecoversWithinRetryBudget(t *testing.T) {
	var requested atomic.Value
	primary := newUpstream(t, func(hit int32, w http.ResponseWriter, r *http.Request) {
		requested.Store(r.URL.RequestURI())
		if hit == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body(primaryBody)(hit, w, r)
	})
	secondary := newUpstream(t, body(secondaryBody))
	tertiary := newUpstream(t, body(tertiaryBody))

	gw, _ := newGateway(t, primary, secondary, tertiary)
	rec, err := gw.Lookup(context.Background(), "KJFK")

	require.NoError(t, err)
	assert.Equal(t, "New York", rec.City)
	assert.Equal(t, "US", rec.Country)
	assert.EqualValues(t, 2, primary.hits.Load())
	assert.Zero(t, secondary.hits.Load())
	assert.Equal(t, "/airport?ids=KJFK&format=json", requested.Load())
}

func TestLookup_FailsOverToSecondary(t *testing.T) {
	primary := newUpstream(t, status(http.StatusServiceUnavailable))
	secondary := newUpstream(t, body(secondaryBody))
	tertiary := newUpstream(t, body(tertiaryBody))

	gw, _ := newGateway(t, primary, secondary, tertiary)
	rec, err := gw.Lookup(context.Background(), "KJFK")

	require.NoError(t, err)
	assert.Equal(t, "John F Kennedy International Airport", rec.Name)
	assert.EqualValues(t, 2, primary.hits.Load(), "retried once")
	assert.Zero(t, tertiary.hits.Load())
}

func TestLookup_TertiaryConvertsElevation(t *testing.T) {
	primary := newUpstream(t, status(http.StatusBadGateway))
	secondary := newUpstream(t, status(http.StatusBadRequest))
	tertiary := newUpstream(t, body(tertiaryBody))

	gw, _ := newGateway(t, primary, secondary, tertiary)
	rec, err := gw.Lookup(context.Background(), "KJFK")

	require.NoError(t, err)
	require.NotNil(t, rec.Elevation)
	assert.Equal(t, 328, *rec.Elevation)
	assert.EqualValues(t, 1, secondary.hits.Load(), "4xx is not retried")
}

func TestLookup_NotFoundIsAuthoritative(t *testing.T) {
	primary := newUpstream(t, body(`[]`))
	secondary := newUpstream(t, body(secondaryBody))
	tertiary := newUpstream(t, body(tertiaryBody))

	gw, _ := newGateway(t, primary, secondary, tertiary)
	_, err := gw.Lookup(context.Background(), "ZZZZ")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, secondary.hits.Load())
	assert.Zero(t, tertiary.hits.Load())
}

func TestLookup_AllProvidersDown(t *testing.T) {
	down := newUpstream(t, status(http.StatusServiceUnavailable))

	gw, strategies := newGateway(t, down, down, down)

	_, err := gw.Lookup(context.Background(), "KJFK")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = gw.Lookup(context.Background(), "KJFK")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	for _, s := range strategies {
		assert.Equal(t, StateOpen, s.Breaker().State(), s.Name())
	}

	hits := down.hits.Load()
	rec, err := gw.Lookup(context.Background(), "KJFK")

	require.NoError(t, err)
	assert.True(t, rec.Degraded)
	assert.Equal(t, "KJFK", rec.ICAOCode)
	assert.Equal(t, hits, down.hits.Load(), "open circuits make no calls")
}

func TestLookup_AbandonedCallerStillFeedsBreaker(t *testing.T) {
	primary := newUpstream(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusBadRequest)
	})
	secondary := newUpstream(t, body(secondaryBody))
	tertiary := newUpstream(t, body(tertiaryBody))

	gw, strategies := newGateway(t, primary, secondary, tertiary)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := gw.Lookup(ctx, "KJFK")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Eventually(t, func() bool {
		return strategies[0].Breaker().Snapshot().Failures == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, secondary.hits.Load())
}
