package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// sleepFunc waits for d or until ctx is done
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// permanentError stops retrying
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

// retry calls fn up to attempts times with a linear backoff of 500ms per attempt
func retry[T any](ctx context.Context, attempts int, sleep sleepFunc, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if attempts < 1 {
		attempts = 1
	}
	for i := range attempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		wait := time.Duration(500*(i+1)) * time.Millisecond
		if err := sleep(ctx, wait); err != nil {
			return zero, fmt.Errorf("retry interrupted after %d attempts: %w", i+1, lastErr)
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
