package store

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// errAttemptTimeout marks an attempt abandoned because its deadline passed.
var errAttemptTimeout = errors.New("attempt deadline exceeded")

type outcome[T any] struct {
	value T
	err   error
}

// timeoutRace runs engine calls against a deadline.
//
// The call gets a context carrying the deadline, so engines that honor
// cancellation stop on their own. When the deadline wins the race the caller
// returns immediately; the call keeps its semaphore slot until it returns, so
// abandoned calls are bounded by the semaphore size.
type timeoutRace struct {
	inFlight *semaphore.Weighted
}

func newTimeoutRace(maxInFlight int) *timeoutRace {
	return &timeoutRace{inFlight: semaphore.NewWeighted(int64(maxInFlight))}
}

// raceCall executes call with the given timeout. It returns errAttemptTimeout
// when the deadline passes first (including while waiting for a slot) and the
// parent's error when ctx itself is done. The result of an abandoned call is
// discarded.
func raceCall[T any](r *timeoutRace, ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	var zero T
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.inFlight.Acquire(callCtx, 1); err != nil {
		return zero, r.deadlineError(ctx)
	}

	done := make(chan outcome[T], 1)
	go func() {
		defer r.inFlight.Release(1)
		v, err := call(callCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case out := <-done:
		// An engine error caused by our own deadline is still a wrapper timeout.
		if out.err != nil && callCtx.Err() != nil {
			return zero, r.deadlineError(ctx)
		}
		return out.value, out.err
	case <-callCtx.Done():
		return zero, r.deadlineError(ctx)
	}
}

func (r *timeoutRace) deadlineError(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return errAttemptTimeout
}
