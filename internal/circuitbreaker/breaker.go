package circuitbreaker

import (
	"sync"
	"time"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Breaker trips after failThreshold consecutive failures and stays open
// for the cooldown. The first calls after the cooldown probe the gateway
// in half-open state; successThreshold successes in a row close it again.
type Breaker struct {
	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	failThreshold    int
	successThreshold int
	timeout          time.Duration
	openedAt         time.Time
}

func New(failThreshold, successThreshold int, timeout time.Duration) *Breaker {
	return &Breaker{
		failThreshold:    failThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
	}
}

func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state != StateOpen
}

func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.failThreshold {
			b.trip()
		}
	case StateOpen:
		// Still cooling down. Results from requests already in flight
		// when the breaker tripped do not move the state.
	case StateHalfOpen:
		if !success {
			b.trip()
			return
		}
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) Successes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.successes
}

// maybeHalfOpen moves an open breaker to half-open once the cooldown has
// elapsed. Callers must hold the lock.
func (b *Breaker) maybeHalfOpen() {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.timeout {
		b.state = StateHalfOpen
		b.failures = 0
		b.successes = 0
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.successes = 0
}
