package tracker

import (
	"context"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"go.uber.org/zap"
)

// Request is a trackable leaf effect.
type Request interface {
	effects.Effect
	Trackable
}

// Epic builds an epic performing every effect of type T through project,
// grouped by tracker key. cancelOf, when set, recognizes the effects that
// cancel a tracker key. Failed operations are logged and produce no action.
func Epic[T Request](
	project Project[T, effects.Action],
	cancelOf func(effects.Effect) (string, bool),
	opts ...Option,
) effects.Epic {
	return func(ctx context.Context, in <-chan effects.Effect) <-chan effects.Action {
		o := newOptions(opts)
		source := make(chan T)
		cancels := make(chan string)
		results := GroupByTracker(ctx, source, project, cancels, opts...)
		go route(ctx, in, source, cancels, cancelOf)

		out := make(chan effects.Action)
		go func() {
			defer close(out)
			for res := range results {
				if res.Err != nil {
					o.logger.Warn("tracked effect failed", zap.Error(res.Err))
					continue
				}
				select {
				case out <- res.Value:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

// route keeps the arrival order of requests and cancels: both channels are
// read by the single Serve goroutine.
func route[T Request](
	ctx context.Context,
	in <-chan effects.Effect,
	source chan<- T,
	cancels chan<- string,
	cancelOf func(effects.Effect) (string, bool),
) {
	defer close(source)
	defer close(cancels)
	for {
		select {
		case <-ctx.Done():
			return
		case eff, ok := <-in:
			if !ok {
				return
			}
			if req, ok := eff.(T); ok {
				select {
				case source <- req:
				case <-ctx.Done():
					return
				}
				continue
			}
			if cancelOf == nil {
				continue
			}
			if key, ok := cancelOf(eff); ok {
				select {
				case cancels <- key:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
