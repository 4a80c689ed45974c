// Package timer performs delayed actions. A tracked timeout is restarted by
// the next timeout under the same key, which makes debouncing a matter of
// reusing one key.
package timer

import (
	"context"
	"time"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/on-the-ground/effect_ive_loop/effects/tracker"
)

const (
	KindSetTimeout effects.Kind = "Timer/SetTimeout"
	KindCancel     effects.Kind = "Timer/Cancel"
)

// SetTimeout dispatches OnFire(elapsed) once After has passed.
type SetTimeout struct {
	After      time.Duration
	OnFire     func(elapsed time.Duration) effects.Action
	TrackerKey string
}

func (SetTimeout) Kind() effects.Kind { return KindSetTimeout }

func (t SetTimeout) Tracker() string { return t.TrackerKey }

func (t SetTimeout) Lift(f func(effects.Action) effects.Action) effects.Effect {
	onFire := t.OnFire
	if onFire == nil {
		return t
	}
	t.OnFire = func(elapsed time.Duration) effects.Action {
		return f(onFire(elapsed))
	}
	return t
}

// Cancel stops the timeout pending under TrackerKey.
type Cancel struct {
	effects.Silent
	TrackerKey string
}

func (Cancel) Kind() effects.Kind { return KindCancel }

func Epic(opts ...tracker.Option) effects.Epic {
	return tracker.Epic[SetTimeout](wait, cancelOf, opts...)
}

func wait(ctx context.Context, t SetTimeout, emit func(effects.Action)) error {
	start := time.Now()
	timer := time.NewTimer(t.After)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case at := <-timer.C:
		if t.OnFire != nil {
			emit(t.OnFire(at.Sub(start)))
		}
		return nil
	}
}

func cancelOf(eff effects.Effect) (string, bool) {
	c, ok := eff.(Cancel)
	return c.TrackerKey, ok
}
