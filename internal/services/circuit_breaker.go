package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrBreakerOpen is returned when the breaker rejects a call outright.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerState is the current disposition of a circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "closed"
}

// BreakerConfig tunes a circuit breaker. Zero values fall back to defaults
// suited to an external statistics API: open after 5 consecutive failures,
// probe again after 60 seconds, close after 2 consecutive probe successes.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// CircuitBreaker shields an unreliable upstream from repeated hammering.
// After enough consecutive failures it rejects calls outright until the open
// timeout passes, then lets probes through until the upstream proves itself
// again. The collector uses one around the World Bank client so that a dead
// API degrades pools to synthetic data quickly instead of stalling every
// request on doomed fetches.
type CircuitBreaker struct {
	name   string
	cfg    BreakerConfig
	logger *logrus.Logger

	mu           sync.Mutex
	state        BreakerState
	failures     int
	successes    int
	openedAt     time.Time
	stateChanges int64
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(name string, cfg BreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CircuitBreaker{name: name, cfg: cfg, logger: logger}
}

// Execute runs fn under the breaker. When the breaker is open the call is
// rejected with ErrBreakerOpen without invoking fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allow() {
		return ErrBreakerOpen
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// allow reports whether a call may proceed, transitioning open to half-open
// once the timeout has passed.
func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState() != BreakerOpen
}

// currentState resolves the state, applying the open-to-half-open timeout.
// Callers must hold the mutex.
func (cb *CircuitBreaker) currentState() BreakerState {
	if cb.state == BreakerOpen && time.Since(cb.openedAt) > cb.cfg.OpenTimeout {
		cb.transition(BreakerHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.successes = 0
		if cb.state == BreakerHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
			cb.openedAt = time.Now()
			cb.transition(BreakerOpen)
		}
		return
	}

	cb.failures = 0
	if cb.state == BreakerHalfOpen {
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transition(BreakerClosed)
		}
	}
}

// transition switches state and logs it. Callers must hold the mutex.
func (cb *CircuitBreaker) transition(next BreakerState) {
	if cb.state == next {
		return
	}
	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"from":            cb.state.String(),
		"to":              next.String(),
		"failures":        cb.failures,
	}).Info("Circuit breaker state change")
	cb.state = next
	cb.successes = 0
	cb.stateChanges++
}
