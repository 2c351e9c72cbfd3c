// Package resiliency isolates failing downstream services behind
// three-state circuit breakers shared across certification flows.
package resiliency

import (
	"sync"
	"time"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Config is the per-service breaker tuning.
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int
}

// Breaker protects one named downstream service. All transitions are
// evaluated lazily at call time; there is no background timer.
type Breaker struct {
	mu sync.Mutex

	service string
	cfg     Config
	now     func() time.Time

	state            State
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	halfOpenAttempts int
}

func NewBreaker(service string, cfg Config, now func() time.Time) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 3
	}
	if now == nil {
		now = time.Now
	}
	return &Breaker{
		service: service,
		cfg:     cfg,
		now:     now,
		state:   StateClosed,
	}
}

func (b *Breaker) Service() string { return b.service }

// CanExecute returns nil when a call may proceed. While OPEN it returns a
// typed *domain.CircuitOpenError; once the reset timeout has elapsed the
// breaker moves to HALF_OPEN and admits a bounded number of probes.
func (b *Breaker) CanExecute() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canExecuteLocked()
}

func (b *Breaker) canExecuteLocked() error {
	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		elapsed := b.now().Sub(b.lastFailureTime)
		if elapsed < b.cfg.ResetTimeout {
			return &domain.CircuitOpenError{
				Service:    b.service,
				RetryAfter: b.cfg.ResetTimeout - elapsed,
			}
		}
		b.state = StateHalfOpen
		b.halfOpenAttempts = 0
		return b.admitProbeLocked()
	case StateHalfOpen:
		return b.admitProbeLocked()
	}
	return nil
}

func (b *Breaker) admitProbeLocked() error {
	if b.halfOpenAttempts >= b.cfg.HalfOpenMaxCalls {
		// Probe budget exhausted without a success: back to OPEN.
		b.state = StateOpen
		b.lastFailureTime = b.now()
		return &domain.CircuitOpenError{
			Service:    b.service,
			RetryAfter: b.cfg.ResetTimeout,
		}
	}
	b.halfOpenAttempts++
	return nil
}

// RecordSuccess closes the breaker from HALF_OPEN on the first successful
// probe and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successCount++
	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.halfOpenAttempts = 0
	}
	b.failureCount = 0
}

// RecordFailure counts a consecutive failure; the threshold trips
// CLOSED to OPEN, and any HALF_OPEN probe failure reopens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = b.now()
	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
	case StateClosed:
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = StateOpen
		}
	}
}

// Execute runs fn under the breaker. The original error is returned
// unmodified so fallback policy can inspect its type.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.CanExecute(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// GetState reports the current state, applying the lazy OPEN→HALF_OPEN
// evaluation first so callers observe the same state a call would.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.lastFailureTime) >= b.cfg.ResetTimeout {
		b.state = StateHalfOpen
		b.halfOpenAttempts = 0
	}
	return b.state
}

// Counts returns the failure and success counters, mostly for audit logs.
func (b *Breaker) Counts() (failures, successes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount, b.successCount
}
