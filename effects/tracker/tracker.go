// Package tracker groups trackable requests by their tracker key.
//
// Untracked requests all run concurrently to completion. Requests sharing a
// tracker key form one logical sequence: a new request supersedes whatever
// is still in flight under that key, and a cancel signal naming the key
// terminates it. Superseded or cancelled work completes silently.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/on-the-ground/effect_ive_loop/effects/internal/handlers"
	effectmodel "github.com/on-the-ground/effect_ive_loop/effects/internal/model"
	"go.uber.org/zap"
)

// Independent is a reserved tracker key meaning "untracked".
const Independent = "tracker/independent"

var ErrProjectionPanic = errors.New("projection panicked")

type Trackable = effectmodel.Trackable

// Result carries one emitted value, or the failure of an operation.
type Result[R any] = handlers.Result[R]

// Project performs the asynchronous operation of one request. It may call
// emit any number of times. Values emitted after the operation was
// superseded or cancelled are dropped.
type Project[T Trackable, R any] func(ctx context.Context, req T, emit func(R)) error

// IsTracked reports whether key names a cancellation scope.
func IsTracked(key string) bool {
	return key != "" && key != Independent
}

type Option func(*options)

type options struct {
	shards int
	logger *zap.Logger
}

// WithShards spreads the per-key bookkeeping over n independently locked shards.
func WithShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{shards: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Executor owns the map from tracker key to the in-flight operation.
type Executor[T Trackable, R any] struct {
	scope   *handlers.Scope
	ctx     context.Context
	project Project[T, R]
	out     chan Result[R]
	shards  []*shard
	wg      sync.WaitGroup
	logger  *zap.Logger
}

type shard struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// slot is the single logical sequence of one tracker key.
type slot struct {
	mu     sync.Mutex // serializes emission against supersede and cancel
	gen    uint64
	cancel context.CancelFunc // guarded by the shard mutex
}

// NewExecutor builds an executor whose results are read from Results.
// Operations run under ctx; ending ctx abandons all of them.
func NewExecutor[T Trackable, R any](
	ctx context.Context,
	project Project[T, R],
	opts ...Option,
) *Executor[T, R] {
	o := newOptions(opts)
	config := effectmodel.NewEffectScopeConfig(1, o.shards)

	shards := make([]*shard, config.NumWorkers)
	for i := range shards {
		shards[i] = &shard{slots: make(map[string]*slot)}
	}
	e := &Executor[T, R]{
		ctx:     ctx,
		project: project,
		out:     make(chan Result[R]),
		shards:  shards,
		logger:  o.logger,
	}
	e.scope = handlers.NewScope(nil)
	e.logger.Debug("created tracker executor",
		zap.String("effectId", e.scope.EffectId),
		zap.Int("shards", len(shards)),
	)
	return e
}

// Results is the merged output of every operation.
func (e *Executor[T, R]) Results() <-chan Result[R] {
	return e.out
}

func (e *Executor[T, R]) shardOf(key string) *shard {
	return e.shards[handlers.PartitionIndex(key, len(e.shards))]
}

// Start runs req. A tracked request cancels and supersedes the operation in
// flight under the same key before it starts.
func (e *Executor[T, R]) Start(req T) {
	key := req.Tracker()
	if !IsTracked(key) {
		e.wg.Add(1)
		go e.run(e.ctx, req, func() bool { return true }, nil, func() {})
		return
	}

	sh := e.shardOf(key)
	sh.mu.Lock()
	s, ok := sh.slots[key]
	if !ok {
		s = &slot{}
		sh.slots[key] = s
	}
	// cancel first: a superseded emitter blocked in send lets go of s.mu
	if s.cancel != nil {
		s.cancel()
		e.logger.Debug("superseded tracked operation", zap.String("tracker", key))
	}
	s.mu.Lock()
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(e.ctx)
	s.cancel = cancel
	s.mu.Unlock()
	sh.mu.Unlock()

	current := func() bool { return s.gen == gen && ctx.Err() == nil }
	e.wg.Add(1)
	go e.run(ctx, req, current, &s.mu, func() {
		cancel()
		e.release(sh, key, s, gen)
	})
}

// Cancel terminates the operation in flight under key. Idle or unknown keys
// are ignored.
func (e *Executor[T, R]) Cancel(key string) {
	if !IsTracked(key) {
		return
	}
	sh := e.shardOf(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, ok := sh.slots[key]
	if !ok {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
	delete(sh.slots, key)
	e.logger.Debug("cancelled tracked operation", zap.String("tracker", key))
}

// release drops the bookkeeping of key once its current operation ended.
func (e *Executor[T, R]) release(sh *shard, key string, s *slot, gen uint64) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || sh.slots[key] != s {
		return
	}
	s.cancel = nil
	delete(sh.slots, key)
}

// ActiveKeys reports how many tracker keys currently have an operation in flight.
func (e *Executor[T, R]) ActiveKeys() int {
	n := 0
	for _, sh := range e.shards {
		sh.mu.Lock()
		n += len(sh.slots)
		sh.mu.Unlock()
	}
	return n
}

// run executes one operation. current reports whether the operation may
// still emit; lock, when set, is held while checking current and sending
// so that a supersede cannot slip between the two. A pending send gives up
// as soon as ctx is cancelled.
func (e *Executor[T, R]) run(
	ctx context.Context,
	req T,
	current func() bool,
	lock sync.Locker,
	done func(),
) {
	defer e.wg.Done()
	defer done()

	send := func(res Result[R]) {
		if lock != nil {
			lock.Lock()
			defer lock.Unlock()
		}
		if !current() {
			return
		}
		select {
		case e.out <- res:
		case <-ctx.Done():
		}
	}

	err := e.protect(ctx, req, func(v R) {
		send(Result[R]{Value: v})
	})
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}
	send(Result[R]{Err: err})
}

func (e *Executor[T, R]) protect(ctx context.Context, req T, emit func(R)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in tracked projection",
				zap.String("tracker", req.Tracker()),
				zap.Any("error", r),
			)
			err = fmt.Errorf("%w: %v", ErrProjectionPanic, r)
		}
	}()
	return e.project(ctx, req, emit)
}

// Serve starts every request of source and applies every signal of
// cancels, in arrival order, on a single goroutine. Results is closed once
// source is closed and all operations ended, or when ctx is done.
func (e *Executor[T, R]) Serve(source <-chan T, cancels <-chan string) {
	defer func() {
		e.wg.Wait()
		close(e.out)
		_ = e.scope.Close()
	}()

	var idle chan struct{}
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-idle:
			return
		case key, ok := <-cancels:
			if !ok {
				cancels = nil
				continue
			}
			e.Cancel(key)
		case req, ok := <-source:
			if !ok {
				source = nil
				idle = make(chan struct{})
				go func(idle chan struct{}) {
					e.wg.Wait()
					close(idle)
				}(idle)
				continue
			}
			e.Start(req)
		}
	}
}

// GroupByTracker runs every request of source through project, grouping
// tracked requests by key, and merges all results into one channel.
func GroupByTracker[T Trackable, R any](
	ctx context.Context,
	source <-chan T,
	project Project[T, R],
	cancels <-chan string,
	opts ...Option,
) <-chan Result[R] {
	e := NewExecutor(ctx, project, opts...)
	go e.Serve(source, cancels)
	return e.Results()
}
