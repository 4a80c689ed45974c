package effects

import (
	effectmodel "github.com/on-the-ground/effect_ive_loop/effects/internal/model"
)

// Action is an application-defined value fed into a reducer. Actions flow
// in both directions: dispatched by callers, or produced by epics.
type Action = any

// Kind discriminates effect values.
type Kind = effectmodel.Kind

const (
	KindBatch = effectmodel.KindBatch
	KindNone  = effectmodel.KindNone
)

// Effect is an inert description of a side effect. It never holds an
// interpreted result and does nothing until an epic receives it.
//
// Batch and None are the only structural effects; every other kind is a leaf.
type Effect interface {
	Kind() Kind
}

// Liftable is implemented by leaf effects that resolve to an action.
// Lift returns a copy whose resulting action is passed through f.
type Liftable interface {
	Effect
	Lift(f func(Action) Action) Effect
}

// Silent marks a leaf effect that is performed for its side effect only
// and never produces an action. Embed it in the effect struct.
type Silent struct{}

func (Silent) silentEffect() {}

type silent interface {
	silentEffect()
}

// IsSilent reports whether e is a silent leaf.
func IsSilent(e Effect) bool {
	_, ok := e.(silent)
	return ok
}

// Batch is an ordered group of child effects. Children may be batches too.
type Batch struct {
	Effects []Effect
}

func (Batch) Kind() Kind { return KindBatch }

// BatchOf builds a Batch holding a copy of effects.
func BatchOf(effects ...Effect) Batch {
	return Batch{Effects: append([]Effect(nil), effects...)}
}

type none struct{}

func (none) Kind() Kind { return KindNone }

// None is the empty effect.
var None Effect = none{}

// IsNone reports whether e describes no effect at all. A nil Effect counts as None.
func IsNone(e Effect) bool {
	return e == nil || e.Kind() == KindNone
}

// Flatten returns the leaves of an effect tree in pre-order, dropping None.
func Flatten(e Effect) []Effect {
	return appendLeaves(nil, e)
}

func appendLeaves(acc []Effect, e Effect) []Effect {
	switch eff := e.(type) {
	case nil:
		return acc
	case Batch:
		for _, child := range eff.Effects {
			acc = appendLeaves(acc, child)
		}
		return acc
	case *Batch:
		if eff == nil {
			return acc
		}
		return appendLeaves(acc, *eff)
	default:
		if eff.Kind() == KindNone {
			return acc
		}
		return append(acc, eff)
	}
}

// Lift maps every action an effect tree may produce through f, without the
// leaves knowing about the parent action type. Batches keep their shape,
// silent leaves and leaves without a result are returned as they are.
func Lift(e Effect, f func(Action) Action) Effect {
	if f == nil {
		return e
	}
	switch eff := e.(type) {
	case nil:
		return None
	case Batch:
		lifted := make([]Effect, len(eff.Effects))
		for i, child := range eff.Effects {
			lifted[i] = Lift(child, f)
		}
		return Batch{Effects: lifted}
	case *Batch:
		if eff == nil {
			return None
		}
		return Lift(*eff, f)
	case silent:
		return e
	case Liftable:
		return eff.Lift(f)
	default:
		return e
	}
}
