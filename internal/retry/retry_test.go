package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })
	return &waits
}

func TestDoZeroPolicyRunsOnce(t *testing.T) {
	waits := stubSleep(t)
	calls := 0
	err := Policy{}.Do(context.Background(), "generate", func(context.Context) error {
		calls++
		return errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	waits := stubSleep(t)
	calls := 0
	err := Policy{Retries: 3, Backoff: 100 * time.Millisecond}.Do(context.Background(), "retrieve", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *waits)
}

func TestDoReturnsLastError(t *testing.T) {
	stubSleep(t)
	calls := 0
	err := Policy{Retries: 2}.Do(context.Background(), "generate", func(context.Context) error {
		calls++
		return errors.New("attempt failed")
	})
	assert.EqualError(t, err, "attempt failed")
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	stubSleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Policy{Retries: 5}.Do(ctx, "generate", func(context.Context) error {
		calls++
		return errors.New("down")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDelayCapped(t *testing.T) {
	p := Policy{Backoff: time.Second}
	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, MaxDelay, p.Delay(3))
	assert.Equal(t, MaxDelay, p.Delay(60))
	assert.Equal(t, 200*time.Millisecond, Policy{}.Delay(-1))
}
