package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State is the current mode of a circuit breaker.
type State int

const (
	// Closed admits requests and counts consecutive failures.
	Closed State = iota
	// Open blocks requests until the timeout elapses.
	Open
	// HalfOpen admits trial requests to probe recovery.
	HalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when a request is blocked by an open circuit.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards a fallible downstream call.
type CircuitBreaker interface {
	// Execute runs req unless the circuit is open.
	Execute(req func() (interface{}, error)) (interface{}, error)
	// State returns the current state.
	State() State
}

type breaker struct {
	failureThreshold uint32 // consecutive failures that trip the circuit
	successThreshold uint32 // consecutive half-open successes that close it
	timeout          time.Duration

	failures  uint32
	successes uint32
	openedAt  time.Time
	state     State
	mu        sync.Mutex
}

// New creates a circuit breaker. The circuit opens after failureThreshold
// consecutive failures, stays open for timeout, then half-opens and closes
// again after successThreshold consecutive successes.
func New(failureThreshold, successThreshold uint32, timeout time.Duration) CircuitBreaker {
	return &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		state:            Closed,
	}
}

func (cb *breaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	cb.mu.Lock()
	if cb.state == Open && time.Since(cb.openedAt) > cb.timeout {
		cb.state = HalfOpen
		cb.successes = 0
	}
	if cb.state == Open {
		cb.mu.Unlock()
		return nil, ErrCircuitOpen
	}
	cb.mu.Unlock()

	res, err := req()
	if err != nil {
		cb.onFailure()
		return nil, err
	}
	cb.onSuccess()
	return res, nil
}

func (cb *breaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case HalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = Closed
			cb.failures = 0
			cb.successes = 0
		}
	case Closed:
		cb.failures = 0
	}
}

func (cb *breaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case HalfOpen:
		cb.trip()
	case Closed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.trip()
		}
	}
}

// trip opens the circuit. Caller holds the lock.
func (cb *breaker) trip() {
	cb.state = Open
	cb.openedAt = time.Now()
	cb.failures = 0
	cb.successes = 0
}
