package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy defines retry behavior for failed operations.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryPolicies maps operation classes to tuned policies. External
// APIs get patient backoff, connection churn at startup gets tight loops,
// and notification delivery gives up quickly because a missed message is
// cheaper than a blocked request.
var DefaultRetryPolicies = map[string]*RetryPolicy{
	"api_call": {
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	},
	"database_operation": {
		MaxRetries:    5,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 1.5,
		JitterEnabled: true,
	},
	"redis_operation": {
		MaxRetries:    3,
		InitialDelay:  25 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: false,
	},
	"telegram_notify": {
		MaxRetries:    2,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      3 * time.Second,
		BackoffFactor: 2.5,
		JitterEnabled: true,
	},
}

// Retrier runs operations with exponential backoff according to a policy.
type Retrier struct {
	policy RetryPolicy
	logger *logrus.Logger
}

// NewRetrier creates a retrier with an explicit policy.
func NewRetrier(policy RetryPolicy, logger *logrus.Logger) *Retrier {
	if logger == nil {
		logger = logrus.New()
	}
	return &Retrier{policy: policy, logger: logger}
}

// NamedRetrier creates a retrier from the default policy table. Unknown
// names fall back to the api_call policy.
func NamedRetrier(name string, logger *logrus.Logger) *Retrier {
	policy, ok := DefaultRetryPolicies[name]
	if !ok {
		policy = DefaultRetryPolicies["api_call"]
	}
	return NewRetrier(*policy, logger)
}

// Do executes fn until it succeeds, the retry budget is spent, or the
// context is canceled. The operation name is only used for logging and the
// final error message.
func (r *Retrier) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	delay := r.policy.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 0 {
				r.logger.WithFields(logrus.Fields{
					"operation": operation,
					"attempts":  attempt + 1,
				}).Info("Operation recovered after retry")
			}
			return nil
		}

		if attempt == r.policy.MaxRetries {
			break
		}

		r.logger.WithError(lastErr).WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt + 1,
			"delay":     delay.String(),
		}).Warn("Operation failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.jitteredDelay(delay)):
		}

		delay = time.Duration(float64(delay) * r.policy.BackoffFactor)
		if delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, r.policy.MaxRetries+1, lastErr)
}

// jitteredDelay spreads concurrent retries apart by up to 25% of the base
// delay.
func (r *Retrier) jitteredDelay(baseDelay time.Duration) time.Duration {
	if !r.policy.JitterEnabled {
		return baseDelay
	}
	jitter := time.Duration(float64(baseDelay) * 0.25 * (0.5 - float64(time.Now().UnixNano()%1000)/1000.0))
	return baseDelay + jitter
}
