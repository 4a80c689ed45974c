package effects

// Loop pairs the next state with the effects to perform.
type Loop[S any] struct {
	State  S
	Effect Effect
}

// Reducer computes the next loop from the current state and an action.
// A returned error aborts the dispatch and leaves the state untouched.
type Reducer[S any] func(state S, action Action) (Loop[S], error)

// Pure adapts an infallible reducer.
func Pure[S any](reduce func(S, Action) Loop[S]) Reducer[S] {
	return func(state S, action Action) (Loop[S], error) {
		return reduce(state, action), nil
	}
}

// Return builds a Loop. No effect yields None, one effect is kept as is,
// more are wrapped in a Batch.
func Return[S any](state S, effects ...Effect) Loop[S] {
	switch len(effects) {
	case 0:
		return Loop[S]{State: state, Effect: None}
	case 1:
		return Loop[S]{State: state, Effect: effects[0]}
	default:
		return Loop[S]{State: state, Effect: BatchOf(effects...)}
	}
}

// Effects returns the flattened leaves of the loop's effect.
func (l Loop[S]) Effects() []Effect {
	return Flatten(l.Effect)
}

func MapModel[SA, SB any](l Loop[SA], mapper func(SA) SB) Loop[SB] {
	return Loop[SB]{State: mapper(l.State), Effect: l.Effect}
}

func MapEffect[S any](l Loop[S], mapper func(Action) Action) Loop[S] {
	return Loop[S]{State: l.State, Effect: Lift(l.Effect, mapper)}
}

// MapLoop embeds a child loop into a parent: the state through modelMapper,
// every resulting action through actionMapper.
func MapLoop[SA, SB any](l Loop[SA], modelMapper func(SA) SB, actionMapper func(Action) Action) Loop[SB] {
	return Loop[SB]{State: modelMapper(l.State), Effect: Lift(l.Effect, actionMapper)}
}

// FlattenLoops collects the states of loops and batches their effects in order.
func FlattenLoops[S any](loops []Loop[S]) Loop[[]S] {
	states := make([]S, len(loops))
	effects := make([]Effect, len(loops))
	for i, l := range loops {
		states[i] = l.State
		effects[i] = l.Effect
	}
	return Loop[[]S]{State: states, Effect: Batch{Effects: effects}}
}
