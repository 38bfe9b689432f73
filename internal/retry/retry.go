// Package retry runs an operation again with exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/mwiater/reviewrag/internal/logging"
)

// MaxDelay caps the wait between attempts.
const MaxDelay = 5 * time.Second

// Policy describes how many extra attempts to make and how long to wait first.
// The zero Policy runs the operation once.
type Policy struct {
	Retries int
	Backoff time.Duration
}

// sleep is swapped in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls fn until it succeeds, the retries are used up, or ctx is done.
// The error from the last attempt is returned.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.Retries || ctx.Err() != nil {
			return err
		}
		wait := p.Delay(attempt)
		logging.LogEvent("%s failed (attempt %d/%d), retrying in %s: %v", op, attempt+1, p.Retries+1, wait, err)
		if serr := sleep(ctx, wait); serr != nil {
			return err
		}
	}
}

// Delay returns Backoff doubled once per previous attempt, capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := p.Backoff
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if attempt > 16 {
		return MaxDelay
	}
	d := base << attempt
	if d > MaxDelay || d <= 0 {
		d = MaxDelay
	}
	return d
}
