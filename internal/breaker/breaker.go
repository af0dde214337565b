// Package breaker implements a per-service circuit breaker and a
// process-wide registry. A breaker stops calling a failing agent backend
// until it is likely recovered, so one unreliable agent cannot cascade
// into a plan-wide failure.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State string

const (
	// StateClosed admits all calls. This is the default.
	StateClosed State = "closed"
	// StateOpen refuses all calls until the recovery timeout elapses.
	StateOpen State = "open"
	// StateHalfOpen admits a limited number of trial calls.
	StateHalfOpen State = "half_open"
)

// Config tunes one breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from closed to open.
	FailureThreshold int
	// RecoveryTimeout is how long after the last failure the breaker
	// starts admitting trial calls.
	RecoveryTimeout time.Duration
	// HalfOpenRequests is the number of trial calls admitted while half-open.
	HalfOpenRequests int
	// CountTimeouts controls whether context deadline errors count toward
	// the failure threshold.
	CountTimeouts bool
	// FailureStatusCodes lists HTTP-style status codes that count as
	// failures when an error exposes one. Empty means every error counts.
	FailureStatusCodes []int
}

// DefaultConfig is a sensible baseline for hosted agents.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		HalfOpenRequests: 1,
		CountTimeouts:    true,
	}
}

// OpenError is returned when the breaker refuses a call. It carries an
// estimate of when the service may admit calls again.
type OpenError struct {
	// Service is the breaker's service name.
	Service string
	// RetryAfter estimates how long until trial calls are admitted.
	RetryAfter time.Duration
}

// Error implements error.
func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker for %s is open, retry in %s", e.Service, e.RetryAfter.Round(time.Millisecond))
}

// IsOpen reports whether err is a breaker admission refusal.
func IsOpen(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}

// statusError is implemented by errors that carry an HTTP-style status
// code, letting adapters mark 429/5xx responses as breaker failures.
type statusError interface {
	HTTPStatus() int
}

// Stats is a point-in-time snapshot of a breaker's counters.
type Stats struct {
	State               State
	ConsecutiveFailures int
	TotalFailures       int64
	TotalSuccesses      int64
	LastFailureTime     time.Time
	LastSuccessTime     time.Time
	LastStateChange     time.Time
}

// Breaker is the fault-isolation state machine for one named service.
// All methods are safe for concurrent use; the counters are shared across
// concurrent plan runs.
type Breaker struct {
	service string
	cfg     Config

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	totalFailures       int64
	totalSuccesses      int64
	halfOpenInFlight    int
	lastFailureTime     time.Time
	lastSuccessTime     time.Time
	lastStateChange     time.Time
}

// New creates a closed breaker for the named service.
func New(service string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultConfig().RecoveryTimeout
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = DefaultConfig().HalfOpenRequests
	}
	return &Breaker{
		service:         service,
		cfg:             cfg,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Service returns the breaker's service name.
func (b *Breaker) Service() string { return b.service }

// CanExecute is the sole admission gate. An open breaker is lazily
// reclassified half-open once the recovery timeout has elapsed since the
// last failure; half-open admits up to HalfOpenRequests in-flight trials.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.admitLocked()
}

// admitLocked checks admission and reserves a half-open slot when taken.
// Caller must hold b.mu.
func (b *Breaker) admitLocked() bool {
	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastFailureTime) < b.cfg.RecoveryTimeout {
			return false
		}
		b.transitionLocked(StateHalfOpen)
		b.halfOpenInFlight = 1
		return true
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenRequests {
			return false
		}
		b.halfOpenInFlight++
		return true
	default:
		return false
	}
}

// Execute wraps a call with admission and success/failure bookkeeping.
// When admission is refused it returns an *OpenError; otherwise fn's error
// is returned unchanged. The breaker only gates admission, it never
// swallows or rewrites errors.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	b.mu.Lock()
	if !b.admitLocked() {
		retryAfter := b.cfg.RecoveryTimeout - time.Since(b.lastFailureTime)
		if retryAfter < 0 {
			retryAfter = 0
		}
		b.mu.Unlock()
		return &OpenError{Service: b.service, RetryAfter: retryAfter}
	}
	trial := b.state == StateHalfOpen
	b.mu.Unlock()

	err := fn(ctx)
	switch {
	case err == nil:
		b.RecordSuccess()
	case b.countsAsFailure(err):
		b.RecordFailure(err)
	case trial:
		// The trial resolved as neither success nor counted failure.
		// Return the reserved slot so the breaker cannot wedge half-open
		// with every slot consumed.
		b.releaseTrial()
	}
	return err
}

// releaseTrial returns a half-open slot reserved by admitLocked.
func (b *Breaker) releaseTrial() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}
}

// RecordSuccess notes a successful call. The first success while half-open
// closes the breaker and resets the consecutive-failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalSuccesses++
	b.lastSuccessTime = time.Now()
	b.consecutiveFailures = 0

	if b.state == StateHalfOpen {
		b.halfOpenInFlight = 0
		b.transitionLocked(StateClosed)
	}
}

// RecordFailure notes a failed call. Errors that do not count as failures
// per the config (uncounted timeouts, non-failure status codes) leave the
// counters untouched. The first failure while half-open reopens the
// breaker and restarts the recovery timer.
func (b *Breaker) RecordFailure(err error) {
	if !b.countsAsFailure(err) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailures++
	b.consecutiveFailures++
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateHalfOpen:
		b.halfOpenInFlight = 0
		b.transitionLocked(StateOpen)
	case StateClosed:
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.transitionLocked(StateOpen)
		}
	}
}

// countsAsFailure applies the timeout and status-code filters.
func (b *Breaker) countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if !b.cfg.CountTimeouts && errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if len(b.cfg.FailureStatusCodes) > 0 {
		var se statusError
		if errors.As(err, &se) {
			code := se.HTTPStatus()
			for _, c := range b.cfg.FailureStatusCodes {
				if c == code {
					return true
				}
			}
			return false
		}
	}
	return true
}

// transitionLocked changes state and stamps the change time.
// Caller must hold b.mu.
func (b *Breaker) transitionLocked(next State) {
	if b.state == next {
		return
	}
	b.state = next
	b.lastStateChange = time.Now()
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a copy of the breaker's counters for display.
func (b *Breaker) Snapshot() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		TotalFailures:       b.totalFailures,
		TotalSuccesses:      b.totalSuccesses,
		LastFailureTime:     b.lastFailureTime,
		LastSuccessTime:     b.lastSuccessTime,
		LastStateChange:     b.lastStateChange,
	}
}
