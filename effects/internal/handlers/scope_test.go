package handlers_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/on-the-ground/effect_ive_loop/effects/internal/handlers"
	"github.com/stretchr/testify/assert"
)

func TestScope_CloseRunsTeardownOnce(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	scope := handlers.NewScope(func() error {
		calls++
		return boom
	})
	assert.NotEmpty(t, scope.EffectId)
	assert.False(t, scope.IsClosed())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.ErrorIs(t, scope.Close(), boom)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	assert.True(t, scope.IsClosed())
	select {
	case <-scope.Closed():
	default:
		t.Fatal("closed channel should be closed")
	}
}

func TestScope_NilTeardown(t *testing.T) {
	scope := handlers.NewScope(nil)
	assert.NoError(t, scope.Close())
	assert.NotEqual(t, scope.EffectId, handlers.NewScope(nil).EffectId)
}
