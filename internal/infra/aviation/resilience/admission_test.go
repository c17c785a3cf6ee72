package resilience

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_CapacityPerWindow(t *testing.T) {
	// one token per hour: nothing refills during the test
	l := NewRateLimiter(3, 1.0/3600)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.TryAcquire(), "call %d", i+1)
	}
	assert.ErrorIs(t, l.TryAcquire(), ErrRateLimited)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	l := NewRateLimiter(10, 1.0/3600)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire() == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted)
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	b := NewBulkhead(1)

	require.NoError(t, b.TryEnter())
	assert.Equal(t, 1, b.InFlight())

	assert.ErrorIs(t, b.TryEnter(), ErrBulkheadFull)

	b.Leave()
	assert.Equal(t, 0, b.InFlight())
	require.NoError(t, b.TryEnter())
	b.Leave()
}

func TestBulkhead_ConcurrentInFlight(t *testing.T) {
	b := NewBulkhead(2)
	hold := make(chan struct{})
	entered := make(chan struct{}, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, b.TryEnter())
			defer b.Leave()
			entered <- struct{}{}
			<-hold
		}()
	}
	<-entered
	<-entered

	assert.ErrorIs(t, b.TryEnter(), ErrBulkheadFull)

	close(hold)
	wg.Wait()
	assert.NoError(t, b.TryEnter())
	b.Leave()
}
