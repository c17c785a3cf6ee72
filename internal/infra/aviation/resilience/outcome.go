// Package resilience implements the per-provider failure isolation policies.
//
// This package contains:
//   - Outcome: tagged result of one provider attempt
//   - Breaker: sliding-window circuit breaker
//   - RetryPolicy: bounded exponential backoff for retryable failures
//   - RateLimiter: non-blocking token bucket
//   - Bulkhead: non-blocking concurrency cap
package resilience

import (
	"errors"
	"fmt"

	"github.com/vietddude/airport-gateway/internal/core/domain"
)

// Kind tags an Outcome.
type Kind int

const (
	KindSuccess Kind = iota
	KindNotFound
	KindRetryable
	KindPermanent
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindRetryable:
		return "retryable"
	case KindPermanent:
		return "permanent"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// RejectReason says which admission policy refused a call.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectCircuitOpen
	RejectRateLimited
	RejectBulkheadFull
)

// Admission errors.
var (
	ErrCircuitOpen  = errors.New("circuit open")
	ErrRateLimited  = errors.New("rate limited")
	ErrBulkheadFull = errors.New("bulkhead full")
)

func (r RejectReason) String() string {
	switch r {
	case RejectCircuitOpen:
		return "circuit_open"
	case RejectRateLimited:
		return "rate_limited"
	case RejectBulkheadFull:
		return "bulkhead_full"
	default:
		return "none"
	}
}

// Err returns the sentinel matching the reason.
func (r RejectReason) Err() error {
	switch r {
	case RejectCircuitOpen:
		return ErrCircuitOpen
	case RejectRateLimited:
		return ErrRateLimited
	case RejectBulkheadFull:
		return ErrBulkheadFull
	default:
		return nil
	}
}

// Outcome is the result of one attempt against one provider.
type Outcome struct {
	Kind    Kind
	Airport domain.Airport
	Reason  RejectReason
	Err     error
}

// Success wraps a normalized record.
func Success(a domain.Airport) Outcome {
	return Outcome{Kind: KindSuccess, Airport: a}
}

// NotFound reports that the provider has no record for the key.
func NotFound() Outcome {
	return Outcome{Kind: KindNotFound, Err: domain.ErrNotFound}
}

// Retryable reports a transient failure worth another attempt.
func Retryable(err error) Outcome {
	return Outcome{Kind: KindRetryable, Err: err}
}

// Permanent reports a failure that retrying will not fix.
func Permanent(err error) Outcome {
	return Outcome{Kind: KindPermanent, Err: err}
}

// Rejected reports that admission refused the call before it was made.
func Rejected(reason RejectReason) Outcome {
	return Outcome{Kind: KindRejected, Reason: reason, Err: reason.Err()}
}

// CountsAsFailure reports whether the outcome should be recorded as a
// breaker failure. Not-found is an answer, not a provider fault.
func (o Outcome) CountsAsFailure() bool {
	return o.Kind == KindRetryable || o.Kind == KindPermanent
}

// TransportError is a failure already classified at the transport boundary.
type TransportError struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (http %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClassifyError maps a raw transport error onto an Outcome kind.
func ClassifyError(err error) Kind {
	if err == nil {
		return KindSuccess
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}

	if errors.Is(err, domain.ErrNotFound) {
		return KindNotFound
	}

	// Timeouts, refused connections and resets all land here.
	return KindRetryable
}

// FromError builds an Outcome for a failed call.
func FromError(err error) Outcome {
	switch ClassifyError(err) {
	case KindNotFound:
		return NotFound()
	case KindPermanent:
		return Permanent(err)
	default:
		return Retryable(err)
	}
}
