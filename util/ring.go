// Package util provides a collection of domain-agnostic utility functions and cross-platform helpers.
package util

// Ring implements a parameterized fixed-capacity collection with oldest-first eviction.
type Ring[T any] struct {
	items []T
	cap   int
}

// NewRing creates a ring with the given capacity. Capacity below one is raised to one.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{cap: capacity}
}

// Push appends an element, evicting the oldest one when full.
func (r *Ring[T]) Push(item T) {
	if len(r.items) == r.cap {
		copy(r.items, r.items[1:])
		r.items[len(r.items)-1] = item
		return
	}
	r.items = append(r.items, item)
}

// Remove deletes the first element for which match returns true.
// Returns whether an element was removed.
func (r *Ring[T]) Remove(match func(T) bool) bool {
	for i, item := range r.items {
		if match(item) {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the elements in insertion order (oldest first).
// The returned slice is shared; callers must not mutate it.
func (r *Ring[T]) Items() []T {
	return r.items
}

// Len returns the number of elements currently stored.
func (r *Ring[T]) Len() int {
	return len(r.items)
}

// Cap returns the fixed capacity of the ring.
func (r *Ring[T]) Cap() int {
	return r.cap
}

// Clear removes all elements, keeping the capacity.
func (r *Ring[T]) Clear() {
	r.items = nil
}
