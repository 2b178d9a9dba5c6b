// Package store provides a minimal observable state container.
//
// A Store holds one value and notifies subscribers synchronously on every
// write. There is no batching and no equality check: callers that need
// idempotent reactions must make their subscriber logic idempotent.
package store

import "sync"

// Store holds a value of type T and a listener list.
type Store[T any] struct {
	mu        sync.Mutex
	state     T
	listeners map[int]func(T)
	nextID    int
}

// New creates a Store seeded with the given initial state.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		state:     initial,
		listeners: make(map[int]func(T)),
	}
}

// Get returns the current state.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the state and notifies every subscriber with the new value.
// Notification is synchronous: Set does not return until all subscribers
// have run.
func (s *Store[T]) Set(state T) {
	s.mu.Lock()
	s.state = state
	fns := make([]func(T), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Update applies fn to the current state and stores the result, notifying
// subscribers. fn must not call back into the Store.
func (s *Store[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.state = fn(s.state)
	state := s.state
	fns := make([]func(T), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, l := range fns {
		l(state)
	}
}

// Subscribe registers fn to run on every state change. It returns an
// unsubscribe function; calling it more than once is harmless.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
