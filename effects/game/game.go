// Package game drives a store with a Tick action for every clock frame.
package game

import (
	"context"
	"errors"
	"time"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/on-the-ground/effect_ive_loop/effects/store"
	"go.uber.org/zap"
)

// Frame describes one clock instant. Span covers the time since the
// previous frame; it is empty for the first one.
type Frame struct {
	Number uint64
	At     time.Time
	Span   effects.TimeSpan
}

// Tick is dispatched to the reducer once per frame.
type Tick struct {
	Frame Frame
}

// TickReducer handles Tick next to the application's own actions.
type TickReducer[S any] = effects.Reducer[S]

type Option func(*options)

type options struct {
	logger    *zap.Logger
	storeOpts []store.Option
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
			o.storeOpts = append(o.storeOpts, store.WithLogger(logger))
		}
	}
}

func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// Game is a store whose reducer also receives a Tick per frame. Ticks go
// through the same serialized Dispatch as every other action.
type Game[S any] struct {
	*store.Store[S]

	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func Start[S any](
	ctx context.Context,
	initial effects.Loop[S],
	reducer effects.Reducer[S],
	epic effects.Epic,
	clock Clock,
	opts ...Option,
) *Game[S] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	frameCtx, cancel := context.WithCancel(ctx)
	g := &Game[S]{
		Store:  store.Start(ctx, initial, reducer, epic, o.storeOpts...),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	g.logger = o.logger.With(zap.String("storeId", g.ID()))
	go g.run(frameCtx, clock.Frames(frameCtx))
	return g
}

func (g *Game[S]) run(ctx context.Context, frames <-chan time.Time) {
	defer close(g.done)

	var (
		number uint64
		prev   time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return
		case at, ok := <-frames:
			if !ok {
				g.logger.Debug("clock stopped", zap.Uint64("frames", number))
				return
			}
			number++
			frame := Frame{Number: number, At: at, Span: effects.NewTimeSpan(prev, at)}
			prev = at

			if err := g.Dispatch(Tick{Frame: frame}); err != nil {
				if errors.Is(err, store.ErrDestroyed) {
					return
				}
				g.logger.Warn("tick rejected", zap.Uint64("frame", number), zap.Error(err))
			}
		}
	}
}

// Destroy stops the frames, then destroys the store.
func (g *Game[S]) Destroy() error {
	g.cancel()
	<-g.done
	return g.Store.Destroy()
}
