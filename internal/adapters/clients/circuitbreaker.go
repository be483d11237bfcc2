package clients

import (
	"sync"
	"time"
)

// State is the position of the circuit breaker.
type State int

// Breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the breaker.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int

	// Timeout is the cool-down before an open circuit lets probes through.
	Timeout time.Duration

	// HalfOpenLimit bounds in-flight probes and is the number of probe
	// successes needed to close the circuit again.
	HalfOpenLimit int
}

// Counts is a snapshot of the breaker counters.
type Counts struct {
	State     State
	Failures  int
	Successes int
	InFlight  int
}

// CircuitBreaker stops calls to a source after repeated failures.
//
//	closed --MaxFailures--> open --Timeout--> half-open --HalfOpenLimit successes--> closed
//	                          ^                   |
//	                          +----any failure----+
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	counts   Counts
	openedAt time.Time
	notify   func(from, to State)
}

// NewCircuitBreaker returns a closed breaker. Non-positive limits become 1.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.HalfOpenLimit = max(cfg.HalfOpenLimit, 1)

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run after every transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.notify = fn
}

// Allow reports whether a call may proceed. Every allowed call must be
// followed by RecordSuccess, RecordFailure, or Release.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var fire func()

	allowed := false

	switch cb.counts.State {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
			fire = cb.moveLocked(StateHalfOpen)
			cb.counts.InFlight = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.counts.InFlight < cb.cfg.HalfOpenLimit {
			cb.counts.InFlight++
			allowed = true
		}
	}

	cb.mu.Unlock()

	if fire != nil {
		fire()
	}

	return allowed
}

// RecordSuccess reports a completed call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var fire func()

	switch cb.counts.State {
	case StateClosed:
		cb.counts.Failures = 0
	case StateHalfOpen:
		cb.counts.InFlight = max(cb.counts.InFlight-1, 0)
		cb.counts.Successes++

		if cb.counts.Successes >= cb.cfg.HalfOpenLimit {
			fire = cb.moveLocked(StateClosed)
		}
	}

	cb.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// RecordFailure reports a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var fire func()

	switch cb.counts.State {
	case StateClosed:
		cb.counts.Failures++

		if cb.counts.Failures >= cb.cfg.MaxFailures {
			fire = cb.moveLocked(StateOpen)
		}
	case StateHalfOpen:
		fire = cb.moveLocked(StateOpen)
	}

	cb.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Release returns the slot of an allowed call that ended without a verdict,
// such as one canceled by its caller.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.counts.State == StateHalfOpen {
		cb.counts.InFlight = max(cb.counts.InFlight-1, 0)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	return cb.Counts().State
}

// Counts returns a snapshot of the counters.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.counts
}

// moveLocked switches state, resets the counters, and returns the
// notification to run once the lock is released.
func (cb *CircuitBreaker) moveLocked(to State) func() {
	from := cb.counts.State
	if from == to {
		return nil
	}

	cb.counts = Counts{State: to}
	if to == StateOpen {
		cb.openedAt = cb.now()
	}

	if cb.notify == nil {
		return nil
	}

	notify := cb.notify

	return func() { notify(from, to) }
}
