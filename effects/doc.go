// Package effects provides the effect algebra of an effects-as-data runtime.
//
// A reducer never performs side effects. It returns a Loop: the next state
// paired with an inert Effect value describing what should happen. Epics
// interpret those descriptions and answer with actions, which flow back into
// the reducer. The store (package store) runs this cycle.
//
// # Effects
//
// An Effect is plain data tagged by its Kind. Two kinds are structural:
//   - Batch groups child effects in order, batches may nest.
//   - None describes no effect at all.
//
// Every other kind is a leaf defined by a collaborator package (timer,
// fetch, storage, log). Flatten turns a tree into its ordered leaves and
// Lift maps the actions a tree may produce, which lets a parent reducer embed
// a child reducer without the child's effects knowing about it.
//
// # Epics
//
// An Epic reads effects from a channel and writes actions to another.
// CombineEpics gives every epic the full effect stream and merges their
// outputs. OfKind and OfType select the effects an epic cares about.
//
// Example:
//
//	func reduce(count int, action effects.Action) effects.Loop[int] {
//	    switch action.(type) {
//	    case Increment:
//	        return effects.Return(count+1, timer.SetTimeout{
//	            After:      time.Second,
//	            OnFire:     func(time.Duration) effects.Action { return Save{} },
//	            TrackerKey: "save",
//	        })
//	    }
//	    return effects.Return(count)
//	}
package effects
