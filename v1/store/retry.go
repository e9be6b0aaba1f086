package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
)

// RetryPolicy decides whether a failed attempt is retried and how long to wait.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	retryable map[engine.Kind]struct{}
}

// NewRetryPolicy builds a policy from the retry fields of cfg.
func NewRetryPolicy(cfg Config) RetryPolicy {
	cfg = cfg.withDefaults()

	kinds := make(map[engine.Kind]struct{}, len(cfg.RetryableKinds))
	for _, k := range cfg.RetryableKinds {
		kinds[engine.Kind(k)] = struct{}{}
	}

	return RetryPolicy{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.InitialRetryDelay,
		MaxDelay:     cfg.MaxRetryDelay,
		retryable:    kinds,
	}
}

// Attempts clamps a requested attempt count to [1, MaxAttempts]. Zero or a
// negative request means MaxAttempts.
func (p RetryPolicy) Attempts(requested int) int {
	if requested <= 0 || requested > p.MaxAttempts {
		return p.MaxAttempts
	}
	return requested
}

// Retryable reports whether err carries a retryable engine kind.
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	_, ok := p.retryable[engine.KindOf(err)]
	return ok
}

// Backoff returns a fresh backoff producing min(InitialDelay*2^(n-1), MaxDelay)
// for the n-th call of NextBackOff, without jitter and without an overall
// elapsed-time cap.
func (p RetryPolicy) Backoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// delay returns the wait before the attempt following attempt number n.
func (p RetryPolicy) delay(attempt int) time.Duration {
	b := p.Backoff()
	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
