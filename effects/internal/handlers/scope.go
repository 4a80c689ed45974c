package handlers

import (
	"sync"

	"github.com/google/uuid"
)

// Scope carries the identity and the teardown of a long-lived effect
// component (a store, an executor). Close runs the teardown exactly once and
// is safe to call from any goroutine.
type Scope struct {
	EffectId string

	once    sync.Once
	closeFn func() error
	err     error
	closed  chan struct{}
}

func NewScope(teardown func() error) *Scope {
	if teardown == nil {
		teardown = func() error { return nil }
	}
	return &Scope{
		EffectId: uuid.New().String(),
		closeFn:  teardown,
		closed:   make(chan struct{}),
	}
}

// Close runs the teardown on first call and returns its error on every call.
func (s *Scope) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.err = s.closeFn()
	})
	return s.err
}

// Closed is closed as soon as Close has been called.
func (s *Scope) Closed() <-chan struct{} {
	return s.closed
}

func (s *Scope) IsClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
