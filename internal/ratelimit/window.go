// Package ratelimit implements the sliding-window throttle shared by all
// classification calls made with one model credential.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultPeriod is the rolling window the quota applies to
const DefaultPeriod = time.Minute

// Observer is notified before Acquire suspends the caller
type Observer func(wait time.Duration)

// Option configures a Window
type Option func(*Window)

// WithPeriod overrides the rolling window length
func WithPeriod(period time.Duration) Option {
	return func(w *Window) {
		w.period = period
	}
}

// WithObserver registers a callback invoked with the computed wait
func WithObserver(observer Observer) Option {
	return func(w *Window) {
		w.observer = observer
	}
}

// WithClock replaces the time source and the sleep function
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Window) {
		w.now = now
		w.sleep = sleep
	}
}

// Window allows at most quota dispatches inside any trailing period.
// It keeps the timestamps of the last quota accepted calls, oldest first.
type Window struct {
	quota    int
	period   time.Duration
	observer Observer

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	stamps []time.Time
}

// New creates a Window allowing quota calls per period (one minute by default).
// A quota below 1 is treated as 1.
func New(quota int, opts ...Option) *Window {
	if quota < 1 {
		quota = 1
	}

	w := &Window{
		quota:  quota,
		period: DefaultPeriod,
		now:    time.Now,
		sleep:  sleepContext,
		stamps: make([]time.Time, 0, quota),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Quota returns the configured number of calls per period
func (w *Window) Quota() int {
	return w.quota
}

// Acquire blocks until one more dispatch fits in the window, then records it.
// The lock is held while waiting so concurrent callers are served in order.
func (w *Window) Acquire(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)

	// a sleep may return early, so capacity is checked again after each one
	for len(w.stamps) >= w.quota {
		wait := w.stamps[0].Add(w.period).Sub(now)
		if w.observer != nil {
			w.observer(wait)
		}
		if err := w.sleep(ctx, wait); err != nil {
			return err
		}
		now = w.now()
		w.evict(now)
	}

	w.stamps = append(w.stamps, now)
	return nil
}

// InWindow reports how many recorded dispatches fall inside the current window
func (w *Window) InWindow() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(w.now())
	return len(w.stamps)
}

// evict drops timestamps that are no longer newer than now-period
func (w *Window) evict(now time.Time) {
	cutoff := now.Add(-w.period)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
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
