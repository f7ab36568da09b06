// Package resilience protects upstream calls from cascading failures.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"wework-hub/internal/domain"
)

// State is the state of a circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds the breaker thresholds.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that closes it again.
	SuccessThreshold int
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
}

// DefaultConfig returns the thresholds used for the job board API.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker counts upstream failures and rejects calls while open.
// Only failures that indicate an unhealthy upstream should be recorded;
// rejected credentials are a healthy response.
type CircuitBreaker struct {
	mu sync.Mutex

	cfg             Config
	state           State
	consecFailures  int
	consecSuccesses int
	openedAt        time.Time
	now             func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultConfig().SuccessThreshold
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed, now: time.Now}
}

// State returns the current state, reporting an expired open circuit as half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) > cb.cfg.OpenTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Allow reports whether a call may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) > cb.cfg.OpenTimeout {
			cb.state = StateHalfOpen
			cb.consecSuccesses = 0
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess records a healthy upstream response.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecFailures = 0
	cb.consecSuccesses++
	if cb.state == StateHalfOpen && cb.consecSuccesses >= cb.cfg.SuccessThreshold {
		cb.state = StateClosed
		cb.consecSuccesses = 0
	}
}

// RecordFailure records an unhealthy upstream response.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecSuccesses = 0
	cb.consecFailures++

	switch cb.state {
	case StateClosed:
		if cb.consecFailures >= cb.cfg.FailureThreshold {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
	case StateHalfOpen:
		cb.state = StateOpen
		cb.openedAt = cb.now()
	}
}

// Execute runs fn when the circuit allows it. isFailure decides which errors
// count against the upstream. Other errors from a cancelled or expired
// context are not recorded at all.
func Execute[T any](cb *CircuitBreaker, isFailure func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	if !cb.Allow() {
		return zero, domain.ErrCircuitOpen
	}

	result, err := fn()
	if err != nil && isFailure(err) {
		cb.RecordFailure()
		return result, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return result, err
	}
	cb.RecordSuccess()
	return result, err
}
