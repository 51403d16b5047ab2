// Package resilience tracks the health of external services with
// per-service circuit breakers.
package resilience

import (
	"log/slog"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Settings configures a breaker.
type Settings struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	HalfOpenMaxAttempts int
}

// DefaultSettings returns threshold 3, reset 5m, 3 half-open trials.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold:    3,
		ResetTimeout:        5 * time.Minute,
		HalfOpenMaxAttempts: 3,
	}
}

// Status is a point-in-time view of one breaker.
type Status struct {
	Service      string     `json:"service"`
	State        State      `json:"state"`
	FailureCount int        `json:"failureCount"`
	LastFailure  *time.Time `json:"lastFailure,omitempty"`
	IsAvailable  bool       `json:"isAvailable"`
}

// CircuitBreaker guards calls to one external service. A single mutex
// makes every transition linearizable.
type CircuitBreaker struct {
	name     string
	settings Settings
	now      func() time.Time
	log      *slog.Logger

	mu               sync.Mutex
	state            State
	failureCount     int
	lastFailureTime  time.Time
	halfOpenAttempts int
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(name string, settings Settings, now func() time.Time, log *slog.Logger) *CircuitBreaker {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &CircuitBreaker{
		name:     name,
		settings: settings,
		now:      now,
		log:      log.With("breaker", name),
		state:    StateClosed,
	}
}

// Name returns the guarded service name.
func (b *CircuitBreaker) Name() string { return b.name }

// IsAvailable reports whether a call may be attempted and must be called
// right before the call. An open breaker whose reset timeout has elapsed
// moves to HALF_OPEN here; each true answer while half-open uses up one
// trial call. Every true answer must be followed by RecordSuccess,
// RecordFailure or Release.
func (b *CircuitBreaker) IsAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.availableLocked(true)
}

func (b *CircuitBreaker) availableLocked(admit bool) bool {
	if b.state == StateOpen {
		if b.now().Sub(b.lastFailureTime) < b.settings.ResetTimeout {
			return false
		}
		b.state = StateHalfOpen
		b.halfOpenAttempts = 0
		b.log.Info("circuit breaker half-open")
	}

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.halfOpenAttempts >= b.settings.HalfOpenMaxAttempts {
			return false
		}
		if admit {
			b.halfOpenAttempts++
		}
		return true
	}
	return false
}

// RecordSuccess closes a half-open breaker and clears failures.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.state = StateClosed
		b.failureCount = 0
		b.halfOpenAttempts = 0
		b.log.Info("circuit breaker closed after successful trial")
	case StateClosed:
		b.failureCount = 0
	}
}

// Release hands back a half-open trial admitted by IsAvailable whose call
// ended without an answer from the service.
func (b *CircuitBreaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen && b.halfOpenAttempts > 0 {
		b.halfOpenAttempts--
	}
}

// RecordFailure counts a failed call. A failure while half-open reopens
// the breaker immediately.
func (b *CircuitBreaker) RecordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureTime = b.now()

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.failureCount = b.settings.FailureThreshold
		b.log.Warn("circuit breaker reopened", slog.Any("error", err))
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.settings.FailureThreshold {
			b.state = StateOpen
			b.log.Warn("circuit breaker opened",
				slog.Int("failures", b.failureCount),
				slog.Any("error", err))
		}
	}
}

// State returns the current state without evaluating the reset timeout.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Status snapshots the breaker. It evaluates availability, so it may
// move OPEN to HALF_OPEN.
func (b *CircuitBreaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	available := b.availableLocked(false)
	st := Status{
		Service:      b.name,
		State:        b.state,
		FailureCount: b.failureCount,
		IsAvailable:  available,
	}
	if !b.lastFailureTime.IsZero() {
		last := b.lastFailureTime
		st.LastFailure = &last
	}
	return st
}
