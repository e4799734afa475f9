package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy is a reusable exponential backoff policy. The zero value is not
// usable; construct with DefaultPolicy or fill in all fields.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// Multiplier scales the delay after each retry.
	Multiplier float64

	// Sleep waits for the given duration or until the context is done.
	// Overridable in tests; nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the transport backoff policy: three retries at
// 1s, 2s and 4s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Multiplier: 2,
	}
}

// Do runs op, retrying failures for which retryable returns true. The
// delay before retry n is BaseDelay * Multiplier^(n-1). Non-retryable
// errors are returned as-is after the failing attempt. When retries are
// exhausted the last error is returned wrapped with an attempt count, so
// errors.Is/As against the underlying error still work.
//
// Context cancellation is honored between attempts and during backoff
// sleeps; in that case the context's error is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, retryable func(error) bool) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	delay := p.BaseDelay

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt >= p.MaxRetries {
			return fmt.Errorf("retries exhausted after %d attempts: %w", attempt+1, lastErr)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
}

// NextDelay returns the backoff delay preceding the given 1-based retry
// number. Exposed for tests and logging.
func (p Policy) NextDelay(retryNumber int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < retryNumber; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
