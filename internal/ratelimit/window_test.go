package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t     time.Time
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.waits = append(c.waits, d)
	c.t = c.t.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestAcquireWithinQuotaDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	w := New(3, WithClock(clock.now, clock.sleep))

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Acquire(context.Background()))
	}

	assert.Empty(t, clock.waits)
	assert.Equal(t, 3, w.InWindow())
}

func TestAcquireWaitsForOldestToExpire(t *testing.T) {
	clock := newFakeClock()
	var observed []time.Duration
	w := New(2,
		WithClock(clock.now, clock.sleep),
		WithObserver(func(wait time.Duration) { observed = append(observed, wait) }),
	)
	ctx := context.Background()

	require.NoError(t, w.Acquire(ctx))
	clock.advance(10 * time.Second)
	require.NoError(t, w.Acquire(ctx))
	clock.advance(5 * time.Second)
	require.NoError(t, w.Acquire(ctx))

	require.Len(t, clock.waits, 1)
	assert.Equal(t, 45*time.Second, clock.waits[0])
	assert.Equal(t, clock.waits, observed)
	assert.Equal(t, 2, w.InWindow())
}

func TestAcquireEvictsExpiredTimestamps(t *testing.T) {
	clock := newFakeClock()
	w := New(2, WithClock(clock.now, clock.sleep))
	ctx := context.Background()

	require.NoError(t, w.Acquire(ctx))
	require.NoError(t, w.Acquire(ctx))
	clock.advance(61 * time.Second)

	assert.Equal(t, 0, w.InWindow())
	require.NoError(t, w.Acquire(ctx))
	assert.Empty(t, clock.waits)
}

func TestAcquireNeverExceedsQuota(t *testing.T) {
	for _, quota := range []int{1, 2, 5, 15} {
		clock := newFakeClock()
		w := New(quota, WithClock(clock.now, clock.sleep))
		rng := rand.New(rand.NewSource(int64(quota)))

		var dispatched []time.Time
		for i := 0; i < 300; i++ {
			clock.advance(time.Duration(rng.Intn(8000)) * time.Millisecond)
			require.NoError(t, w.Acquire(context.Background()))
			dispatched = append(dispatched, clock.now())
		}

		for _, wait := range clock.waits {
			assert.Positive(t, wait, "quota %d waited a non-positive duration", quota)
		}

		for i, at := range dispatched {
			inWindow := 0
			for j := 0; j <= i; j++ {
				if dispatched[j].After(at.Add(-DefaultPeriod)) {
					inWindow++
				}
			}
			if inWindow > quota {
				t.Fatalf("quota %d: %d dispatches inside the window ending at call %d", quota, inWindow, i)
			}
		}
	}
}

func TestAcquireRechecksAfterEarlyWakeup(t *testing.T) {
	clock := newFakeClock()
	early := true
	sleep := func(ctx context.Context, d time.Duration) error {
		clock.waits = append(clock.waits, d)
		if early {
			early = false
			return nil
		}
		clock.advance(d)
		return nil
	}
	w := New(2, WithClock(clock.now, sleep))
	ctx := context.Background()

	require.NoError(t, w.Acquire(ctx))
	clock.advance(10 * time.Second)
	require.NoError(t, w.Acquire(ctx))
	require.NoError(t, w.Acquire(ctx))

	require.Len(t, clock.waits, 2)
	assert.Equal(t, 50*time.Second, clock.waits[0])
	assert.Equal(t, 50*time.Second, clock.waits[1])
	assert.LessOrEqual(t, w.InWindow(), w.Quota())
	assert.Equal(t, 2, w.InWindow())
}

func TestAcquireHonoursCancellation(t *testing.T) {
	w := New(1, WithPeriod(time.Hour))
	require.NoError(t, w.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, w.InWindow())
}

func TestAcquireConcurrentCallers(t *testing.T) {
	period := 50 * time.Millisecond
	w := New(2, WithPeriod(period))

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Acquire(context.Background()))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 2*period)
}

func TestNewClampsQuota(t *testing.T) {
	assert.Equal(t, 1, New(0).Quota())
	assert.Equal(t, 15, New(15).Quota())
}
