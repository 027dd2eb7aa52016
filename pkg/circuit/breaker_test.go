package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(true); err != nil {
		panic(err)
	}
	m.Run()
}

func TestNewBreaker(t *testing.T) {
	breaker := NewBreaker("capture", 3, 10*time.Second)

	assert.NotNil(t, breaker)
	assert.Equal(t, "capture", breaker.name)
	assert.Equal(t, int64(3), breaker.maxFailures)
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, 5*time.Second, breaker.initialBackoff)
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	breaker := NewBreaker("capture", 3, time.Second)

	err := breaker.Call(func() error { return nil })

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	breaker := NewBreaker("capture", 3, time.Second)

	for i := 0; i < 3; i++ {
		_ = breaker.Call(func() error { return errors.New("capture failed") })
	}

	assert.Equal(t, StateOpen, breaker.State())

	err := breaker.Call(func() error { return nil })
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker")
}

func TestBreakerHalfOpenAfterBackoff(t *testing.T) {
	breaker := NewBreaker("capture", 2, time.Second)
	breaker.currentBackoff = 100 * time.Millisecond

	breaker.RecordFailure()
	breaker.RecordFailure()
	assert.Equal(t, StateOpen, breaker.State())

	// The open transition doubled the backoff; shrink it so the test can
	// wait it out.
	breaker.mu.Lock()
	breaker.currentBackoff = 100 * time.Millisecond
	breaker.mu.Unlock()

	time.Sleep(150 * time.Millisecond)

	assert.True(t, breaker.Allow())
	assert.Equal(t, StateHalfOpen, breaker.State())
}

func TestBreakerRecovery(t *testing.T) {
	breaker := NewBreaker("capture", 2, time.Second)

	breaker.RecordFailure()
	breaker.RecordFailure()
	assert.Equal(t, StateOpen, breaker.State())

	breaker.mu.Lock()
	breaker.currentBackoff = 50 * time.Millisecond
	breaker.mu.Unlock()

	time.Sleep(100 * time.Millisecond)
	assert.True(t, breaker.Allow())

	for i := 0; i < 3; i++ {
		breaker.RecordSuccess()
	}

	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerBackoffGrows(t *testing.T) {
	breaker := NewBreaker("capture", 1, time.Second)
	initial := breaker.currentBackoff

	breaker.RecordFailure()
	assert.Equal(t, StateOpen, breaker.State())
	assert.Greater(t, breaker.Stats().CurrentBackoff, initial)
}

func TestBreakerStats(t *testing.T) {
	breaker := NewBreaker("capture", 5, time.Second)

	breaker.RecordSuccess()
	breaker.RecordFailure()

	stats := breaker.Stats()
	assert.Equal(t, "capture", stats.Name)
	assert.Equal(t, "CLOSED", stats.State)
	assert.Equal(t, int64(1), stats.Failures)
}

func TestBreakerReset(t *testing.T) {
	breaker := NewBreaker("capture", 2, time.Second)

	breaker.RecordFailure()
	breaker.RecordFailure()
	assert.Equal(t, StateOpen, breaker.State())

	breaker.Reset()

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, int64(0), breaker.failures)
	assert.Equal(t, int64(0), breaker.successes)
}
