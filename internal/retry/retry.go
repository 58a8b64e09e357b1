package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goretry "github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Operation is a fallible call that may be attempted more than once.
type Operation[T any] func(ctx context.Context) (T, error)

// ErrExhausted is returned once every attempt of an operation has failed.
type ErrExhausted struct {
	error
	Attempts int
}

func NewErrExhausted(name string, attempts int, err error) *ErrExhausted {
	return &ErrExhausted{
		error:    errors.Wrapf(err, "%s failed after %d attempts", name, attempts),
		Attempts: attempts,
	}
}

func (e *ErrExhausted) Unwrap() error {
	return e.error
}

// Do runs op up to maxRetries+1 times, sleeping a fixed delay between
// attempts. Each failed attempt logs a warning; exhaustion logs an error and
// returns *ErrExhausted wrapping the last failure.
func Do[T any](ctx context.Context, name string, maxRetries int, delay time.Duration, op Operation[T]) (T, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	total := maxRetries + 1

	attempts := 0
	result, err := goretry.DoValue(ctx, goretry.WithMaxRetries(uint64(maxRetries), constant(delay)), func(ctx context.Context) (T, error) {
		attempts++
		r, err := op(ctx)
		if err != nil {
			zap.S().Named("retry").Warnf("%s: attempt %d/%d failed: %v", name, attempts, total, err)
			return r, goretry.RetryableError(err)
		}
		return r, nil
	})
	if err != nil {
		zap.S().Named("retry").Errorf("%s: giving up after %d attempts: %v", name, attempts, err)
		return result, NewErrExhausted(name, attempts, err)
	}

	return result, nil
}

// constant never stops on its own and tolerates a zero delay, unlike
// goretry.NewConstant.
func constant(delay time.Duration) goretry.Backoff {
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		return delay, false
	})
}
