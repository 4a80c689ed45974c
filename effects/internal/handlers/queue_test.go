package handlers_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_loop/effects/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushDrainKeepsOrder(t *testing.T) {
	q := handlers.NewQueue[int]()
	q.Push(1, 2)
	q.Push()
	q.Push(3)

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []int{1, 2, 3}, q.Drain())
	assert.Empty(t, q.Drain())
}

func TestQueue_PumpDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := handlers.NewQueue[int]()
	sink := make(chan int)
	go q.Pump(ctx, sink)

	for i := 0; i < 100; i++ {
		q.Push(i)
	}

	for want := 0; want < 100; want++ {
		select {
		case got := <-sink:
			require.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for item %d", want)
		}
	}
}

func TestQueue_PushNeverBlocks(t *testing.T) {
	q := handlers.NewQueue[int]()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			q.Push(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked without a consumer")
	}
	assert.Equal(t, 10000, q.Len())
}

func TestQueue_ConcurrentPushesAreNotInterleaved(t *testing.T) {
	q := handlers.NewQueue[int]()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			q.Push(base, base+1, base+2)
		}(g * 10)
	}
	wg.Wait()

	items := q.Drain()
	require.Len(t, items, 24)
	for i := 0; i < len(items); i += 3 {
		assert.Equal(t, items[i]+1, items[i+1])
		assert.Equal(t, items[i]+2, items[i+2])
	}
}

func TestQueue_PumpStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	q := handlers.NewQueue[int]()
	sink := make(chan int)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		q.Pump(ctx, sink)
	}()

	q.Push(1)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop after cancel")
	}
}

func TestQueue_PumpReturnsOnceClosedAndDrained(t *testing.T) {
	q := handlers.NewQueue[int]()
	q.Push(1, 2, 3)
	q.Close()
	q.Push(4)

	sink := make(chan int, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Pump(context.Background(), sink)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not return after close")
	}
	close(sink)

	var got []int
	for v := range sink {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}
