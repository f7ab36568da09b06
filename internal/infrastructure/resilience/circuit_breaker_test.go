package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"wework-hub/internal/domain"

	"github.com/stretchr/testify/assert"
)

var errUpstream = errors.New("upstream down")

func alwaysFailure(error) bool { return true }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(Config{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Minute})

	for range 2 {
		_, err := Execute(cb, alwaysFailure, func() (int, error) { return 0, errUpstream })
		assert.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	_, err := Execute(cb, alwaysFailure, func() (int, error) { called = true; return 1, nil })
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Second})
	now := time.Now()
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	v, err := Execute(cb, alwaysFailure, func() (int, error) { return 7, nil })
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IgnoresHealthyErrors(t *testing.T) {
	cb := NewCircuitBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Minute})
	healthy := func(err error) bool { return !errors.Is(err, domain.ErrInvalidCredentials) }

	_, err := Execute(cb, healthy, func() (int, error) { return 0, domain.ErrInvalidCredentials })
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CancelledCallsAreNotRecorded(t *testing.T) {
	cb := NewCircuitBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Second})
	now := time.Now()
	cb.now = func() time.Time { return now }
	transportOnly := func(err error) bool { return errors.Is(err, errUpstream) }

	for range 5 {
		_, err := Execute(cb, transportOnly, func() (int, error) { return 0, context.Canceled })
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, StateClosed, cb.State())

	cb.RecordFailure()
	now = now.Add(2 * time.Second)
	_, err := Execute(cb, transportOnly, func() (int, error) { return 0, context.DeadlineExceeded })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateHalfOpen, cb.State(), "an abandoned call does not close a half-open circuit")
}
