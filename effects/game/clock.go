package game

import (
	"context"
	"time"

	"github.com/on-the-ground/effect_ive_loop/effects/config"
)

// Clock produces the instants at which frames are dispatched.
type Clock interface {
	Frames(ctx context.Context) <-chan time.Time
}

type tickerClock struct {
	interval time.Duration
}

// NewTickerClock ticks fps times per second. A non-positive fps uses the
// configured default.
func NewTickerClock(fps int) Clock {
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	return tickerClock{interval: time.Second / time.Duration(fps)}
}

func (c tickerClock) Frames(ctx context.Context) <-chan time.Time {
	out := make(chan time.Time)
	go func() {
		defer close(out)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case at := <-ticker.C:
				select {
				case out <- at:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// ManualClock emits a frame each time Advance is called.
type ManualClock struct {
	frames chan time.Time
}

func NewManualClock() *ManualClock {
	return &ManualClock{frames: make(chan time.Time)}
}

func (c *ManualClock) Frames(context.Context) <-chan time.Time {
	return c.frames
}

// Advance emits at and blocks until the previous frame has been dispatched
// and at has been taken, or ctx is done.
func (c *ManualClock) Advance(ctx context.Context, at time.Time) error {
	select {
	case c.frames <- at:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
