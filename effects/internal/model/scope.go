package effectmodel

import "errors"

// Kind discriminates effect values. Structural kinds live here; collaborator
// kinds are declared next to their effect types.
type Kind string

const (
	KindBatch Kind = "Core/Batch"
	KindNone  Kind = "Core/None"
)

var ErrScopeClosed = errors.New("effect scope closed")

type EffectScopeConfig struct {
	BufferSize int // default: 1
	NumWorkers int // default: 1, number of tracker shards
}

func NewEffectScopeConfig(bufferSize int, numWorkers int) EffectScopeConfig {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return EffectScopeConfig{
		BufferSize: bufferSize,
		NumWorkers: numWorkers,
	}
}

// Normalize applies the defaults of NewEffectScopeConfig to a literal config.
func (c EffectScopeConfig) Normalize() EffectScopeConfig {
	return NewEffectScopeConfig(c.BufferSize, c.NumWorkers)
}

// Trackable is implemented by requests that may be grouped under a tracker key.
type Trackable interface {
	Tracker() string
}
