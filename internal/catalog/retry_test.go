package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDisk = errors.New("disk I/O error")

func TestIsContextErr(t *testing.T) {
	assert.False(t, isContextErr(nil))
	assert.False(t, isContextErr(errDisk))
	assert.True(t, isContextErr(context.Canceled))
	assert.True(t, isContextErr(fmt.Errorf("put vendor: %w", context.DeadlineExceeded)))
}

func TestRetry_Backoff(t *testing.T) {
	rc := &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		JitterFraction: 0.0, // no jitter for deterministic test
	}

	assert.Equal(t, 100*time.Millisecond, rc.backoff(0))
	assert.Equal(t, 200*time.Millisecond, rc.backoff(1))
	assert.Equal(t, 400*time.Millisecond, rc.backoff(2))
}

func TestRetry_BackoffCapped(t *testing.T) {
	rc := &RetryConfig{
		MaxRetries:     10,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     5 * time.Second,
	}

	assert.Equal(t, 5*time.Second, rc.backoff(10))
}

func TestRetry_BackoffJitterBounded(t *testing.T) {
	rc := &RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		JitterFraction: 0.25,
	}

	for i := 0; i < 50; i++ {
		d := rc.backoff(0)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}

func TestRetry_Success(t *testing.T) {
	rc := &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
	}

	attempts := 0
	err := rc.retry(context.Background(), "put_vendor", func() error {
		attempts++
		if attempts < 3 {
			return errDisk
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_Exhausted(t *testing.T) {
	rc := &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
	}

	attempts := 0
	err := rc.retry(context.Background(), "put_vendor", func() error {
		attempts++
		return errDisk
	})

	assert.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, attempts) // initial + 2 retries
}

func TestRetry_NoRetry(t *testing.T) {
	attempts := 0
	err := NoRetry().retry(context.Background(), "put_item", func() error {
		attempts++
		return errDisk
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ContextErrorNotRetried(t *testing.T) {
	rc := &RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	attempts := 0
	err := rc.retry(context.Background(), "put_item", func() error {
		attempts++
		return context.DeadlineExceeded
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ContextCancellation(t *testing.T) {
	rc := &RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := rc.retry(ctx, "put_price", func() error {
		return errDisk
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleep(ctx, 10*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep_Normal(t *testing.T) {
	err := sleep(context.Background(), 1*time.Millisecond)
	assert.NoError(t, err)
}
