package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
)

func TestRetryPolicyAttempts(t *testing.T) {
	p := NewRetryPolicy(Config{MaxRetries: 3})

	assert.Equal(t, 3, p.Attempts(0))
	assert.Equal(t, 3, p.Attempts(-1))
	assert.Equal(t, 1, p.Attempts(1))
	assert.Equal(t, 3, p.Attempts(3))
	assert.Equal(t, 3, p.Attempts(10))
}

func TestRetryPolicyDelay(t *testing.T) {
	p := NewRetryPolicy(Config{InitialRetryDelay: 100 * time.Millisecond, MaxRetryDelay: time.Second})

	assert.Equal(t, 100*time.Millisecond, p.delay(1))
	assert.Equal(t, 200*time.Millisecond, p.delay(2))
	assert.Equal(t, 400*time.Millisecond, p.delay(3))
	assert.Equal(t, 800*time.Millisecond, p.delay(4))
	assert.Equal(t, time.Second, p.delay(5))
	assert.Equal(t, time.Second, p.delay(12))
}

func TestRetryPolicyRetryable(t *testing.T) {
	p := NewRetryPolicy(Config{})

	for _, kind := range DefaultRetryableKinds {
		assert.True(t, p.Retryable(&engine.Error{Kind: kind, Err: errors.New("x")}), string(kind))
	}
	assert.False(t, p.Retryable(&engine.Error{Kind: engine.KindConstraint, Err: errors.New("x")}))
	assert.False(t, p.Retryable(&engine.Error{Kind: engine.KindSyntax, Err: errors.New("x")}))
	assert.False(t, p.Retryable(nil))

	// Unclassified errors are classified on the fly.
	assert.True(t, p.Retryable(errors.New("database is locked")))
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, sleep(context.Background(), time.Millisecond))
}
