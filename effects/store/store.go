// Package store runs the dispatch loop: a serialized reducer whose effects
// are handed to an epic, and whose epic output is dispatched back.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/on-the-ground/effect_ive_loop/effects/internal/handlers"
	effectmodel "github.com/on-the-ground/effect_ive_loop/effects/internal/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrDestroyed    = fmt.Errorf("store destroyed: %w", effectmodel.ErrScopeClosed)
	ErrReducerPanic = errors.New("reducer panicked")
)

type Option func(*options)

type options struct {
	logger    *zap.Logger
	config    effectmodel.EffectScopeConfig
	teardowns []func() error
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConfig sizes the channel feeding the epic.
func WithConfig(config effectmodel.EffectScopeConfig) Option {
	return func(o *options) {
		o.config = config.Normalize()
	}
}

// WithTeardown registers fn to run on Destroy, after the loop has stopped.
// Teardowns run in reverse registration order.
func WithTeardown(fn func() error) Option {
	return func(o *options) {
		if fn != nil {
			o.teardowns = append(o.teardowns, fn)
		}
	}
}

// Store owns the current state of one running loop.
//
// Reducer calls are serialized. The effects of one Dispatch are queued in
// the same critical section that commits the state, so effects of
// different dispatches never interleave, even when an epic dispatches
// while another dispatch is in progress.
type Store[S any] struct {
	scope   *handlers.Scope
	logger  *zap.Logger
	reducer effects.Reducer[S]

	mu        sync.Mutex
	state     S
	destroyed bool
	watchers  map[chan S]struct{}

	queue     *handlers.Queue[effects.Effect]
	input     chan effects.Effect
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	teardowns []func() error
}

// Start seeds a store with initial and starts its loop. The effects of
// initial are performed first, exactly once. The loop runs until Destroy is
// called or ctx is done.
//
// A reducer must not call Dispatch of its own store.
func Start[S any](
	ctx context.Context,
	initial effects.Loop[S],
	reducer effects.Reducer[S],
	epic effects.Epic,
	opts ...Option,
) *Store[S] {
	o := options{
		logger: zap.NewNop(),
		config: effectmodel.NewEffectScopeConfig(1, 1),
	}
	for _, opt := range opts {
		opt(&o)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Store[S]{
		logger:    o.logger,
		reducer:   reducer,
		state:     initial.State,
		watchers:  make(map[chan S]struct{}),
		queue:     handlers.NewQueue[effects.Effect](),
		input:     make(chan effects.Effect, o.config.BufferSize),
		ctx:       runCtx,
		cancel:    cancel,
		teardowns: o.teardowns,
	}
	s.scope = handlers.NewScope(s.teardown)
	s.logger = s.logger.With(zap.String("storeId", s.scope.EffectId))

	s.queue.Push(effects.Flatten(initial.Effect)...)
	output := epic(runCtx, s.input)

	s.wg.Add(2)
	go s.pump()
	go s.read(output)

	s.logger.Debug("created store", zap.Int("bufferSize", o.config.BufferSize))
	return s
}

// StartWithoutEffects runs a sandbox store: reduce only updates the state
// and nothing is ever performed.
func StartWithoutEffects[S any](
	ctx context.Context,
	initial S,
	reduce func(S, effects.Action) S,
	opts ...Option,
) *Store[S] {
	reducer := func(state S, action effects.Action) (effects.Loop[S], error) {
		return effects.Return(reduce(state, action)), nil
	}
	return Start(ctx, effects.Return(initial), reducer, effects.NeverEpic, opts...)
}

func (s *Store[S]) ID() string {
	return s.scope.EffectId
}

// State returns the latest committed state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces action against the current state. On success the new
// state is committed and its effects are queued; Dispatch never waits for
// them. A failing or panicking reducer leaves the state as it was.
func (s *Store[S]) Dispatch(action effects.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || s.ctx.Err() != nil {
		return ErrDestroyed
	}

	loop, err := s.reduce(action)
	if err != nil {
		s.logger.Debug("reducer rejected action",
			zap.String("actionType", fmt.Sprintf("%T", action)),
			zap.Error(err),
		)
		return fmt.Errorf("dispatch %T: %w", action, err)
	}

	s.state = loop.State
	pending := effects.Flatten(loop.Effect)
	s.queue.Push(pending...)
	s.notify(loop.State)
	return nil
}

func (s *Store[S]) reduce(action effects.Action) (loop effects.Loop[S], err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in reducer",
				zap.Any("action", action),
				zap.Any("error", r),
			)
			err = fmt.Errorf("%w: %v", ErrReducerPanic, r)
		}
	}()
	return s.reducer(s.state, action)
}

// Watch delivers the current state, then the latest state after each
// commit. Intermediate states are skipped when the reader falls behind.
// The channel is closed when ctx is done or the store is destroyed.
func (s *Store[S]) Watch(ctx context.Context) <-chan S {
	ch := make(chan S, 1)

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	ch <- s.state
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.scope.Closed():
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
	}()
	return ch
}

// notify must be called with s.mu held.
func (s *Store[S]) notify(state S) {
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}

// Destroy stops the loop. In-flight effects are abandoned, the epic input
// is closed and the teardowns run. Once Destroy returns no action reaches
// the reducer and no effect is handed to the epic. Destroy is idempotent.
func (s *Store[S]) Destroy() error {
	return s.scope.Close()
}

func (s *Store[S]) teardown() error {
	s.mu.Lock()
	s.destroyed = true
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.queue.Close()
	close(s.input)

	var err error
	for i := len(s.teardowns) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.teardowns[i]())
	}
	if err != nil {
		s.logger.Warn("store teardown failed", zap.Error(err))
	}
	s.logger.Debug("destroyed store", zap.Int("abandonedEffects", s.queue.Len()))
	return err
}

func (s *Store[S]) pump() {
	defer s.wg.Done()
	s.queue.Pump(s.ctx, s.input)
}

func (s *Store[S]) read(output <-chan effects.Action) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case action, ok := <-output:
			if !ok {
				if s.ctx.Err() == nil {
					s.logger.Warn("epic output closed, effects no longer feed back")
				}
				return
			}
			if err := s.Dispatch(action); err != nil {
				if errors.Is(err, ErrDestroyed) {
					return
				}
				s.logger.Warn("dropped epic action", zap.Error(err))
			}
		}
	}
}
