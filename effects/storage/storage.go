// Package storage is a string key/value store driven by effects. Reads
// resolve to an action; writes are silent.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/on-the-ground/effect_ive_loop/effects/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("storage closed")

const (
	KindGetItem    effects.Kind = "Storage/GetItem"
	KindSetItem    effects.Kind = "Storage/SetItem"
	KindRemoveItem effects.Kind = "Storage/RemoveItem"
)

// Backend stores string values by key. Implementations are safe for
// concurrent use and return ErrClosed once closed.
type Backend interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// GetItem reads Key and dispatches OnReturn(value, found).
type GetItem struct {
	Key      string
	OnReturn func(value string, ok bool) effects.Action
}

func (GetItem) Kind() effects.Kind { return KindGetItem }

func (g GetItem) Lift(f func(effects.Action) effects.Action) effects.Effect {
	onReturn := g.OnReturn
	if onReturn == nil {
		return g
	}
	g.OnReturn = func(value string, ok bool) effects.Action {
		return f(onReturn(value, ok))
	}
	return g
}

type SetItem struct {
	effects.Silent
	Key   string
	Value string
}

func (SetItem) Kind() effects.Kind { return KindSetItem }

type RemoveItem struct {
	effects.Silent
	Key string
}

func (RemoveItem) Kind() effects.Kind { return KindRemoveItem }

// Epic performs storage effects against backend in arrival order, so a
// read always observes the writes issued before it. Backend failures are
// logged; a failed read produces no action.
func Epic(backend Backend, logger *zap.Logger) effects.Epic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return effects.MapEpic(func(_ context.Context, eff effects.Effect) (effects.Action, bool) {
		switch e := eff.(type) {
		case GetItem:
			value, ok, err := backend.Get(e.Key)
			if err != nil {
				logger.Error("failed to get item", zap.String("key", e.Key), zap.Error(err))
				return nil, false
			}
			if e.OnReturn == nil {
				return nil, false
			}
			return e.OnReturn(value, ok), true
		case SetItem:
			if err := backend.Set(e.Key, e.Value); err != nil {
				logger.Error("failed to set item", zap.String("key", e.Key), zap.Error(err))
			}
		case RemoveItem:
			if err := backend.Delete(e.Key); err != nil {
				logger.Error("failed to remove item", zap.String("key", e.Key), zap.Error(err))
			}
		}
		return nil, false
	})
}

// Open builds the backend described by cfg.
func Open(cfg config.Storage) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		backend, err = NewMemoryBackend()
	case config.BackendBolt:
		backend, err = NewBoltBackend(cfg.Path, cfg.Bucket)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalid, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		cached, err := NewCachedBackend(backend, cfg.CacheSize)
		if err != nil {
			return nil, multierr.Append(err, backend.Close())
		}
		return cached, nil
	}
	return backend, nil
}
