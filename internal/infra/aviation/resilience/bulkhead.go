package resilience

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Bulkhead caps the number of concurrent in-flight calls to one provider.
type Bulkhead struct {
	capacity int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// NewBulkhead creates a bulkhead admitting up to capacity concurrent calls.
func NewBulkhead(capacity int) *Bulkhead {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bulkhead{
		capacity: int64(capacity),
		sem:      semaphore.NewWeighted(int64(capacity)),
	}
}

// TryEnter admits a call or fails with ErrBulkheadFull. Every successful
// TryEnter must be paired with Leave.
func (b *Bulkhead) TryEnter() error {
	if !b.sem.TryAcquire(1) {
		return ErrBulkheadFull
	}
	b.inFlight.Add(1)
	return nil
}

// Leave releases a slot taken by TryEnter.
func (b *Bulkhead) Leave() {
	b.inFlight.Add(-1)
	b.sem.Release(1)
}

// InFlight returns the number of calls currently admitted.
func (b *Bulkhead) InFlight() int {
	return int(b.inFlight.Load())
}

// Capacity returns the configured limit.
func (b *Bulkhead) Capacity() int {
	return int(b.capacity)
}
