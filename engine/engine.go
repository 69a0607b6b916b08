// Package engine drives the external media playback backend over its JSON-IPC interface.
//
// The primary implementation targets 'mpv' running as an idle child process with a
// playlist, observable properties, and a Unix-socket command channel.
package engine

import (
	"errors"
	"sync"
)

// ErrShutdown is returned by every engine operation once the backend process has
// exited or termination has begun. Callers treat it as a clean-exit condition,
// not a failure.
var ErrShutdown = errors.New("engine is shutting down")

// PropertyCallback is the function signature for property-change notifications.
// Callbacks run on the engine's event-listener goroutine and must not block.
type PropertyCallback func(property string, value interface{})

// Subscription is the owned handle for a registered property observer.
// Unsubscribe is safe to call multiple times; only the first call takes effect.
type Subscription struct {
	property string
	once     sync.Once
	cancel   func() error
	err      error
}

// NewSubscription wraps a cancel function into an exactly-once handle.
func NewSubscription(property string, cancel func() error) *Subscription {
	return &Subscription{property: property, cancel: cancel}
}

// Property returns the observed property name.
func (s *Subscription) Property() string {
	return s.property
}

// Unsubscribe removes the observer registration exactly once.
func (s *Subscription) Unsubscribe() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.err = s.cancel()
		}
	})
	return s.err
}
