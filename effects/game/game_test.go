package game_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/on-the-ground/effect_ive_loop/effects/game"
	"github.com/on-the-ground/effect_ive_loop/effects/log"
	"github.com/on-the-ground/effect_ive_loop/effects/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type world struct {
	Frames   []uint64
	Elapsed  time.Duration
	Position int
	Velocity int
}

type push int

func simulate(w world, action effects.Action) (effects.Loop[world], error) {
	switch a := action.(type) {
	case game.Tick:
		w.Frames = append(append([]uint64(nil), w.Frames...), a.Frame.Number)
		w.Elapsed += a.Frame.Span.Duration()
		w.Position += w.Velocity
		return effects.Return(w), nil
	case push:
		w.Velocity += int(a)
		return effects.Return(w), nil
	}
	return effects.Return(w), fmt.Errorf("unknown action %T", action)
}

func TestGame_TicksThroughReducer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := game.NewManualClock()
	g := game.Start(ctx, effects.Return(world{}), simulate, effects.NeverEpic, clock,
		game.WithLogger(log.NewTestLogger()),
	)
	defer g.Destroy()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, g.Dispatch(push(2)))
	for i := 0; i < 3; i++ {
		require.NoError(t, clock.Advance(ctx, start.Add(time.Duration(i)*16*time.Millisecond)))
	}
	require.Eventually(t, func() bool {
		return len(g.State().Frames) == 3
	}, time.Second, time.Millisecond)
	require.NoError(t, g.Dispatch(push(1)))
	require.NoError(t, clock.Advance(ctx, start.Add(48*time.Millisecond)))

	require.Eventually(t, func() bool {
		return len(g.State().Frames) == 4
	}, time.Second, time.Millisecond)

	w := g.State()
	assert.Equal(t, []uint64{1, 2, 3, 4}, w.Frames)
	assert.Equal(t, 48*time.Millisecond, w.Elapsed)
	assert.Equal(t, 2+2+2+3, w.Position)
}

func TestGame_TickerClock(t *testing.T) {
	g := game.Start(context.Background(), effects.Return(world{Velocity: 1}), simulate, effects.NeverEpic,
		game.NewTickerClock(200),
	)

	require.Eventually(t, func() bool {
		return len(g.State().Frames) >= 3
	}, 2*time.Second, time.Millisecond)
	require.NoError(t, g.Destroy())

	frames := g.State().Frames
	for i := 1; i < len(frames); i++ {
		assert.Greater(t, frames[i], frames[i-1])
	}

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, frames, g.State().Frames, "no frame after destroy")
	assert.ErrorIs(t, g.Dispatch(push(1)), store.ErrDestroyed)
}

func TestGame_DestroyStopsClock(t *testing.T) {
	var reducer game.TickReducer[world] = simulate
	clock := game.NewManualClock()
	g := game.Start(context.Background(), effects.Return(world{}), reducer, effects.NeverEpic, clock)
	require.NoError(t, g.Destroy())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, clock.Advance(ctx, time.Now()), context.DeadlineExceeded)
}

type (
	frameDone  struct{ Number uint64 }
	frameSound struct{ Number uint64 }
	ack        struct{ Number uint64 }
)

func (frameDone) Kind() effects.Kind  { return "Test/FrameDone" }
func (frameSound) Kind() effects.Kind { return "Test/FrameSound" }

type scored struct {
	world
	Acked []uint64
}

func simulateWithEffects(s scored, action effects.Action) (effects.Loop[scored], error) {
	switch a := action.(type) {
	case ack:
		s.Acked = append(append([]uint64(nil), s.Acked...), a.Number)
		return effects.Return(s), nil
	case game.Tick:
		loop, err := simulate(s.world, action)
		if err != nil {
			return effects.Return(s), err
		}
		s.world = loop.State
		n := a.Frame.Number
		return effects.Return(s, frameDone{Number: n}, effects.BatchOf(frameSound{Number: n})), nil
	}
	return effects.Return(s), fmt.Errorf("unknown action %T", action)
}

func TestGame_TickEffectsReachEpic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []effects.Effect
	)
	epic := func(ctx context.Context, in <-chan effects.Effect) <-chan effects.Action {
		out := make(chan effects.Action)
		go func() {
			defer close(out)
			for eff := range in {
				mu.Lock()
				seen = append(seen, eff)
				mu.Unlock()

				done, ok := eff.(frameDone)
				if !ok {
					continue
				}
				select {
				case out <- ack{Number: done.Number}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}

	clock := game.NewManualClock()
	g := game.Start(ctx, effects.Return(scored{}), simulateWithEffects, epic, clock)
	defer g.Destroy()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, clock.Advance(ctx, start.Add(time.Duration(i)*time.Millisecond)))
	}

	require.Eventually(t, func() bool {
		return len(g.State().Acked) == 3
	}, time.Second, time.Millisecond)
	assert.Equal(t, []uint64{1, 2, 3}, g.State().Acked)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []effects.Effect{
		frameDone{Number: 1}, frameSound{Number: 1},
		frameDone{Number: 2}, frameSound{Number: 2},
		frameDone{Number: 3}, frameSound{Number: 3},
	}, seen)
}

func TestGame_TicksAndDispatchesAreSerialized(t *testing.T) {
	const (
		dispatchers = 8
		pushes      = 50
		frames      = 20
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := game.NewManualClock()
	g := game.Start(ctx, effects.Return(world{}), simulate, effects.NeverEpic, clock)
	defer g.Destroy()

	var wg sync.WaitGroup
	for i := 0; i < dispatchers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < pushes; j++ {
				assert.NoError(t, g.Dispatch(push(1)))
			}
		}()
	}

	start := time.Now()
	for i := 0; i < frames; i++ {
		require.NoError(t, clock.Advance(ctx, start.Add(time.Duration(i)*time.Millisecond)))
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(g.State().Frames) == frames
	}, time.Second, time.Millisecond)

	w := g.State()
	assert.Equal(t, dispatchers*pushes, w.Velocity, "no dispatch lost against ticks")
	for i, n := range w.Frames {
		assert.Equal(t, uint64(i+1), n)
	}
}
