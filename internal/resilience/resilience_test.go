package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reflect-cli/pkg/oracle"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(&oracle.UnavailableError{Err: eris.New("overloaded")}))
	assert.False(t, IsTransient(&oracle.RequestError{Err: eris.New("bad request")}))
	assert.False(t, IsTransient(eris.New("parse failure")))
	assert.True(t, IsTransient(eris.New("read tcp: i/o timeout")))

	// Wrapped oracle errors keep their classification.
	wrapped := eris.Wrap(&oracle.UnavailableError{Err: eris.New("529")}, "assign: call")
	assert.True(t, IsTransient(wrapped))
}

func TestDoVal_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastRetry(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &oracle.UnavailableError{Err: eris.New("overloaded")}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoVal_DoesNotRetryRequestErrors(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(5), func(ctx context.Context) (string, error) {
		calls++
		return "", &oracle.RequestError{Err: eris.New("invalid prompt")}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, &oracle.UnavailableError{Err: eris.New("still down")}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, oracle.IsUnavailable(err))
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastRetry(10), func(ctx context.Context) error {
		calls++
		cancel()
		return &oracle.UnavailableError{Err: eris.New("down")}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	cfg := fastRetry(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, _ = DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
		return 0, &oracle.UnavailableError{Err: eris.New("down")}
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestWithAttempts(t *testing.T) {
	assert.Equal(t, 7, WithAttempts(7).MaxAttempts)
	assert.Equal(t, 3, WithAttempts(0).MaxAttempts)
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	ctx := context.Background()

	fail := func(ctx context.Context) error {
		return &oracle.UnavailableError{Err: eris.New("down")}
	}

	require.Error(t, cb.Execute(ctx, fail))
	require.Error(t, cb.Execute(ctx, fail))
	assert.Equal(t, CircuitOpen, cb.State())

	// Rejected without invoking fn.
	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_RequestErrorsDoNotTrip(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error {
			return &oracle.RequestError{Err: eris.New("bad request")}
		})
	}
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbeRecovers(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
	})
	cb.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Execute(ctx, func(ctx context.Context) error {
		return &oracle.UnavailableError{Err: eris.New("down")}
	})
	assert.Equal(t, CircuitOpen, cb.State())

	// Advance past the reset timeout; the probe succeeds and closes.
	now = now.Add(2 * time.Minute)
	err := cb.Execute(ctx, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	var transitions []CircuitState
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange:    func(from, to CircuitState) { transitions = append(transitions, to) },
	})
	cb.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	fail := func(ctx context.Context) error {
		return &oracle.UnavailableError{Err: eris.New("down")}
	}
	_ = cb.Execute(ctx, fail)

	now = now.Add(2 * time.Minute)
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, []CircuitState{CircuitOpen, CircuitHalfOpen, CircuitOpen}, transitions)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return &oracle.UnavailableError{Err: eris.New("down")}
	})
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
}
