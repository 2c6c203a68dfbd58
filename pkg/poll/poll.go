// Package poll runs bounded exponential-backoff polling loops.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when every attempt ran without the condition holding.
var ErrExhausted = errors.New("poll: attempts exhausted")

// Backoff bounds a polling loop. Zero MaxAttempts means unbounded, in which
// case the context must carry a deadline.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	MaxAttempts int
}

// Default is used for receipt waits.
var Default = Backoff{
	Initial:    500 * time.Millisecond,
	Max:        10 * time.Second,
	Multiplier: 2,
}

// Delay returns the wait before attempt n (zero-based).
func (b Backoff) Delay(n int) time.Duration {
	d := b.Initial
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 2
	}
	for i := 0; i < n; i++ {
		d = time.Duration(float64(d) * mult)
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	return d
}

// Until calls fn until it reports done, returns an error, the attempts run
// out or ctx ends. fn's error stops the loop immediately.
func Until(ctx context.Context, b Backoff, fn func(ctx context.Context) (bool, error)) error {
	for attempt := 0; b.MaxAttempts <= 0 || attempt < b.MaxAttempts; attempt++ {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if b.MaxAttempts > 0 && attempt == b.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(b.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrExhausted, b.MaxAttempts)
}
