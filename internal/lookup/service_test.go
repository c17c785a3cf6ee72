package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/airport-gateway/internal/core/domain"
)

type stubGateway struct {
	mu    sync.Mutex
	keys  []domain.LookupKey
	rec   domain.Airport
	err   error
	calls int
}

func (g *stubGateway) Lookup(ctx context.Context, key domain.LookupKey) (domain.Airport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.keys = append(g.keys, key)
	if g.err != nil {
		return domain.Airport{}, g.err
	}
	rec := g.rec
	if rec.ICAOCode == "" {
		rec.ICAOCode = key.String()
	}
	return rec, nil
}

func TestService_NormalizesKey(t *testing.T) {
	gw := &stubGateway{}
	svc := NewService(gw)

	rec, err := svc.Get(context.Background(), "  kjfk ")

	require.NoError(t, err)
	assert.Equal(t, "KJFK", rec.ICAOCode)
	assert.Equal(t, []domain.LookupKey{"KJFK"}, gw.keys)
}

func TestService_InvalidInputNeverReachesGateway(t *testing.T) {
	gw := &stubGateway{}
	svc := NewService(gw)

	for _, raw := range []string{"", "JFK", "KJFK1", "12AB"} {
		_, err := svc.Get(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, raw)
	}
	assert.Zero(t, gw.calls)
}

func TestService_CachesLiveRecords(t *testing.T) {
	gw := &stubGateway{rec: domain.Airport{Name: "Kennedy"}}
	svc := NewService(gw, WithCache(10, time.Minute))

	for i := 0; i < 3; i++ {
		rec, err := svc.Get(context.Background(), "kjfk")
		require.NoError(t, err)
		assert.Equal(t, "Kennedy", rec.Name)
	}
	assert.Equal(t, 1, gw.calls)
}

func TestService_CacheExpires(t *testing.T) {
	gw := &stubGateway{}
	svc := NewService(gw, WithCache(10, 20*time.Millisecond))

	_, err := svc.Get(context.Background(), "KJFK")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = svc.Get(context.Background(), "KJFK")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.calls)
}

func TestService_DoesNotCacheFallbackOrErrors(t *testing.T) {
	gw := &stubGateway{rec: domain.FallbackAirport("KJFK")}
	svc := NewService(gw, WithCache(10, time.Minute))

	_, _ = svc.Get(context.Background(), "KJFK")
	_, _ = svc.Get(context.Background(), "KJFK")
	assert.Equal(t, 2, gw.calls)

	gw.err = errors.New("boom")
	gw.rec = domain.Airport{}
	_, err := svc.Get(context.Background(), "EGLL")
	assert.Error(t, err)
	_, err = svc.Get(context.Background(), "EGLL")
	assert.Error(t, err)
	assert.Equal(t, 4, gw.calls)
}
