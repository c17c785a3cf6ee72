package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	WindowSize       int
	FailureThreshold float64
	CoolDown         time.Duration
	HalfOpenProbes   int // concurrent probes allowed in HALF_OPEN; the first success closes
}

// DefaultBreakerConfig trips at a 50% failure ratio over the last 10 calls.
var DefaultBreakerConfig = BreakerConfig{
	WindowSize:       10,
	FailureThreshold: 0.5,
	CoolDown:         30 * time.Second,
	HalfOpenProbes:   1,
}

// TransitionFunc observes breaker state changes. It runs while the breaker
// lock is held and must not call back into the breaker.
type TransitionFunc func(name string, from, to State)

// BreakerSnapshot is a point-in-time view of a breaker.
type BreakerSnapshot struct {
	State    State `json:"state"`
	Calls    int   `json:"window_calls"`
	Failures int   `json:"window_failures"`
}

// FailureRatio returns the failure ratio of the current window.
func (s BreakerSnapshot) FailureRatio() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Calls)
}

// Breaker is a count-based sliding window circuit breaker for one provider.
//
// State transitions, open timing and half-open probe accounting are handled
// by a gobreaker two-step breaker; the trip decision reads the window kept
// here. Every call into gobreaker happens under mu, so its callbacks may
// touch the window without further locking.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu     sync.Mutex
	cb     *gobreaker.TwoStepCircuitBreaker[struct{}]
	window *outcomeWindow
	epoch  uint64 // bumped on every transition

	onTransition TransitionFunc
}

// NewBreaker creates a closed breaker with an empty window.
func NewBreaker(name string, cfg BreakerConfig, onTransition TransitionFunc) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultBreakerConfig.WindowSize
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig.FailureThreshold
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = DefaultBreakerConfig.CoolDown
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = DefaultBreakerConfig.HalfOpenProbes
	}

	b := &Breaker{
		name:         name,
		cfg:          cfg,
		window:       newOutcomeWindow(cfg.WindowSize),
		onTransition: onTransition,
	}

	b.cb = gobreaker.NewTwoStepCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.HalfOpenProbes),
		Timeout:     cfg.CoolDown,
		ReadyToTrip: func(gobreaker.Counts) bool {
			return b.shouldTrip()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.epoch++
			if to == gobreaker.StateClosed {
				b.window.reset()
			}
			if b.onTransition != nil {
				b.onTransition(name, fromGobreaker(from), fromGobreaker(to))
			}
		},
	})

	return b
}

// Name returns the provider name the breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

// Attempt asks for permission to call the provider. The returned permit
// must be recorded exactly once.
func (b *Breaker) Attempt() (*Permit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	done, err := b.cb.Allow()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, fmt.Errorf("breaker %s: %w", b.name, err)
	}

	return &Permit{breaker: b, done: done, epoch: b.epoch}, nil
}

// State returns the current state, moving OPEN to HALF_OPEN once the
// cool-down has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fromGobreaker(b.cb.State())
}

// Snapshot returns the state together with the window counters.
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerSnapshot{
		State:    fromGobreaker(b.cb.State()),
		Calls:    b.window.count,
		Failures: b.window.failures,
	}
}

func (b *Breaker) shouldTrip() bool {
	return b.window.full() && b.window.failureRatio() >= b.cfg.FailureThreshold
}

// record applies one result. Results from permits granted before the last
// transition are dropped, matching gobreaker's generation check.
func (b *Breaker) record(p *Permit, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.cb.State()
	if p.epoch != b.epoch {
		return
	}

	switch state {
	case gobreaker.StateClosed:
		b.window.add(success)
		// gobreaker consults ReadyToTrip on failures only.
		if success && b.shouldTrip() {
			success = false
		}
	case gobreaker.StateHalfOpen:
		// One probe success closes the breaker. gobreaker wants
		// MaxRequests consecutive successes, so report the rest.
		if success {
			for i := 1; i < b.cfg.HalfOpenProbes; i++ {
				p.done(true)
			}
		}
	}
	p.done(success)
}

// Permit is a granted breaker admission.
type Permit struct {
	breaker *Breaker
	once    sync.Once
	done    func(bool)
	epoch   uint64
}

// Record reports the call result. Only the first call has any effect.
func (p *Permit) Record(success bool) {
	p.once.Do(func() {
		p.breaker.record(p, success)
	})
}

// outcomeWindow is a fixed-size ring of call results.
type outcomeWindow struct {
	results  []bool // true = failure
	next     int
	count    int
	failures int
}

func newOutcomeWindow(size int) *outcomeWindow {
	return &outcomeWindow{results: make([]bool, size)}
}

func (w *outcomeWindow) add(success bool) {
	failed := !success
	if w.count == len(w.results) {
		if w.results[w.next] {
			w.failures--
		}
	} else {
		w.count++
	}

	w.results[w.next] = failed
	if failed {
		w.failures++
	}
	w.next = (w.next + 1) % len(w.results)
}

func (w *outcomeWindow) full() bool {
	return w.count == len(w.results)
}

func (w *outcomeWindow) failureRatio() float64 {
	if w.count == 0 {
		return 0
	}
	return float64(w.failures) / float64(w.count)
}

func (w *outcomeWindow) reset() {
	for i := range w.results {
		w.results[i] = false
	}
	w.next = 0
	w.count = 0
	w.failures = 0
}
