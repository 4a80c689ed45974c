package handlers

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO. Push never blocks, so producers holding
// locks can enqueue safely; a single Pump goroutine delivers the items.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{signal: make(chan struct{}, 1)}
}

// Push appends items atomically: items of one call are never interleaved
// with items of another call. Pushing to a closed queue is a no-op.
func (q *Queue[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, items...)
	q.mu.Unlock()

	q.wake()
}

// Close stops accepting items. Items already queued are still delivered by Pump.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

func (q *Queue[T]) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) exhausted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Drain removes and returns everything queued so far.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.items
	q.items = nil
	return drained
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pump moves queued items to sink in FIFO order until ctx is done or the
// queue is closed and empty. Items still queued when ctx ends are abandoned.
func (q *Queue[T]) Pump(ctx context.Context, sink chan<- T) {
	for {
		for _, item := range q.Drain() {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case sink <- item:
			}
		}
		if q.exhausted() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-q.signal:
		}
	}
}
