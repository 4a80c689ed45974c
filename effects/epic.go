package effects

import (
	"context"
	"slices"
	"sync"

	"github.com/on-the-ground/effect_ive_loop/effects/internal/handlers"
)

// Epic interprets a stream of effects into a stream of actions.
//
// An epic must keep reading in until it is closed or ctx is done, and should
// close its output once in is closed and its own work has ended.
type Epic func(ctx context.Context, in <-chan Effect) <-chan Action

// CombineEpics feeds the same effect stream to every epic and merges their
// outputs. Each epic sees every effect in order; a slow epic never holds
// back the others. Outputs of different epics interleave by completion time.
func CombineEpics(epics ...Epic) Epic {
	return func(ctx context.Context, in <-chan Effect) <-chan Action {
		inputs := make([]chan Effect, len(epics))
		outputs := make([]<-chan Action, len(epics))
		for i, epic := range epics {
			inputs[i] = make(chan Effect)
			outputs[i] = epic(ctx, inputs[i])
		}

		go broadcast(ctx, in, inputs)

		out := make(chan Action)
		merge(ctx, outputs, out)
		return out
	}
}

// broadcast copies every effect of in to each sink through an unbounded
// per-sink queue, and closes the sinks once in is closed and drained.
func broadcast(ctx context.Context, in <-chan Effect, sinks []chan Effect) {
	queues := make([]*handlers.Queue[Effect], len(sinks))
	for i, sink := range sinks {
		q := handlers.NewQueue[Effect]()
		queues[i] = q
		go func(sink chan Effect) {
			defer close(sink)
			q.Pump(ctx, sink)
		}(sink)
	}
	defer func() {
		for _, q := range queues {
			q.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case eff, ok := <-in:
			if !ok {
				return
			}
			for _, q := range queues {
				q.Push(eff)
			}
		}
	}
}

// merge fans sources into sink and closes sink once every source is closed.
func merge[T any](ctx context.Context, sources []<-chan T, sink chan<- T) {
	var wg sync.WaitGroup
	for _, source := range sources {
		if source == nil {
			continue
		}
		wg.Add(1)
		go func(source <-chan T) {
			defer wg.Done()
			pipe(ctx, source, sink)
		}(source)
	}
	go func() {
		wg.Wait()
		close(sink)
	}()
}

func pipe[T any](ctx context.Context, source <-chan T, sink chan<- T) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-source:
			if !ok {
				return
			}
			select {
			case sink <- v:
			case <-ctx.Done():
				return
			}
		}
	}
}

// filterMap forwards pick's accepted values until in is closed or ctx is done.
// Every value of in is consumed, picked or not.
func filterMap[T any](ctx context.Context, in <-chan Effect, pick func(Effect) (T, bool)) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case eff, ok := <-in:
				if !ok {
					return
				}
				v, picked := pick(eff)
				if !picked {
					continue
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// OfKind keeps the effects whose kind is one of kinds.
func OfKind(ctx context.Context, in <-chan Effect, kinds ...Kind) <-chan Effect {
	return filterMap(ctx, in, func(eff Effect) (Effect, bool) {
		return eff, slices.Contains(kinds, eff.Kind())
	})
}

// OfType keeps the effects of the concrete type E.
func OfType[E Effect](ctx context.Context, in <-chan Effect) <-chan E {
	return filterMap(ctx, in, func(eff Effect) (E, bool) {
		e, ok := eff.(E)
		return e, ok
	})
}

// Tap builds a silent epic: fn performs every effect of type E and nothing
// is emitted.
func Tap[E Effect](fn func(context.Context, E)) Epic {
	return func(ctx context.Context, in <-chan Effect) <-chan Action {
		out := make(chan Action)
		go func() {
			defer close(out)
			for eff := range OfType[E](ctx, in) {
				fn(ctx, eff)
			}
		}()
		return out
	}
}

// MapEpic builds an epic resolving every effect of type E synchronously.
// Effects for which fn reports false produce no action.
func MapEpic[E Effect](fn func(context.Context, E) (Action, bool)) Epic {
	return func(ctx context.Context, in <-chan Effect) <-chan Action {
		out := make(chan Action)
		go func() {
			defer close(out)
			for eff := range OfType[E](ctx, in) {
				action, ok := fn(ctx, eff)
				if !ok {
					continue
				}
				select {
				case out <- action:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

// NeverEpic consumes every effect and emits nothing.
func NeverEpic(ctx context.Context, in <-chan Effect) <-chan Action {
	out := make(chan Action)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-in:
				if !ok {
					return
				}
			}
		}
	}()
	return out
}
