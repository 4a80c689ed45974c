package app

import (
	"context"
	"fmt"

	"github.com/on-the-ground/effect_ive_loop/effects/store"
)

// waitFor blocks until the state of s satisfies done.
func waitFor[S any](ctx context.Context, s *store.Store[S], done func(S) bool) (S, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var last S
	for state := range s.Watch(ctx) {
		last = state
		if done(state) {
			return state, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return last, fmt.Errorf("waiting for state: %w", err)
	}
	return last, store.ErrDestroyed
}
