package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Endpoint considered down, calls rejected
	StateHalfOpen              // Probing whether the endpoint recovered
)

// Breaker guards a remote endpoint. Only failures accepted by the
// configured Counts predicate move it towards open.
type Breaker struct {
	mu               sync.Mutex
	state            State
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	openedAt         time.Time
	counts           func(error) bool
	onStateChange    func(from, to State)
	nowFunc          func() time.Time
}

// Config configures a circuit breaker.
type Config struct {
	FailureThreshold int           // consecutive failures before opening (default: 5)
	SuccessThreshold int           // successes in half-open before closing (default: 1)
	OpenTimeout      time.Duration // how long to stay open before half-open (default: 30s)
	// Counts decides whether an error is the endpoint's fault. Nil counts every error.
	Counts        func(error) bool
	OnStateChange func(from, to State)
}

func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	return &Breaker{
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
		counts:           cfg.Counts,
		onStateChange:    cfg.OnStateChange,
		nowFunc:          time.Now,
	}
}

// Do runs fn if the breaker allows it and records the outcome.
// Errors rejected by the Counts predicate are returned untouched and
// recorded as successes, since the endpoint did answer.
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	if err != nil && b.countable(err) {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return err
}

func (b *Breaker) countable(err error) bool {
	if b.counts == nil {
		return true
	}
	return b.counts(err)
}

// Allow checks if a request should be allowed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	if b.state == StateOpen {
		return ErrCircuitOpen
	}
	return nil
}

// RecordSuccess records a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.setState(StateClosed)
		}
	}
}

// RecordFailure records a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	switch b.state {
	case StateHalfOpen:
		b.open()
	case StateClosed:
		if b.failureCount >= b.failureThreshold {
			b.open()
		}
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state
}

func (b *Breaker) open() {
	b.openedAt = b.nowFunc()
	b.setState(StateOpen)
}

func (b *Breaker) maybeHalfOpen() {
	if b.state == StateOpen && b.nowFunc().Sub(b.openedAt) >= b.openTimeout {
		b.setState(StateHalfOpen)
	}
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successCount = 0
	if to == StateClosed {
		b.failureCount = 0
	}
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}

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
