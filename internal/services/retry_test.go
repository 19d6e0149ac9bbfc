package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetrier_Do_SucceedsFirstTry(t *testing.T) {
	retrier := NewRetrier(fastPolicy(3), collectorLogger())

	calls := 0
	err := retrier.Do(context.Background(), "noop", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_Do_RecoversAfterFailures(t *testing.T) {
	retrier := NewRetrier(fastPolicy(3), collectorLogger())

	calls := 0
	err := retrier.Do(context.Background(), "flaky", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_Do_ExhaustsBudget(t *testing.T) {
	retrier := NewRetrier(fastPolicy(2), collectorLogger())

	cause := errors.New("still broken")
	calls := 0
	err := retrier.Do(context.Background(), "doomed", func(ctx context.Context) error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "doomed failed after 3 attempts")
}

func TestRetrier_Do_ContextCanceledDuringBackoff(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  10 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
	retrier := NewRetrier(policy, collectorLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	calls := 0
	err := retrier.Do(ctx, "slow", func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetrier_Do_ContextAlreadyCanceled(t *testing.T) {
	retrier := NewRetrier(fastPolicy(3), collectorLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retrier.Do(ctx, "never", func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestNamedRetrier_FallsBackToDefaultPolicy(t *testing.T) {
	retrier := NamedRetrier("no_such_operation", collectorLogger())
	assert.Equal(t, *DefaultRetryPolicies["api_call"], retrier.policy)

	retrier = NamedRetrier("redis_operation", collectorLogger())
	assert.Equal(t, *DefaultRetryPolicies["redis_operation"], retrier.policy)
}

func TestDefaultRetryPolicies_AreSane(t *testing.T) {
	for name, policy := range DefaultRetryPolicies {
		assert.Greater(t, policy.MaxRetries, 0, name)
		assert.Greater(t, policy.InitialDelay, time.Duration(0), name)
		assert.GreaterOrEqual(t, policy.MaxDelay, policy.InitialDelay, name)
		assert.GreaterOrEqual(t, policy.BackoffFactor, 1.0, name)
	}
}
