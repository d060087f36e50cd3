package queue

import (
	"context"
	"time"
)

// Pacer inserts a fixed delay between outbound calls to stay under a
// third-party rate limit. The zero value does not wait.
type Pacer struct {
	Interval time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer returns a pacer that waits interval after every call to Wait.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{Interval: interval}
}

// Wait blocks for at least the pacing interval. It returns early with the
// context's error only if ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.Interval <= 0 {
		return nil
	}
	if p.sleep != nil {
		return p.sleep(ctx, p.Interval)
	}
	return Delay(ctx, p.Interval)
}

// Delay suspends for d, or until ctx is done.
func Delay(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
