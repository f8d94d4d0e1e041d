// Package orderedset provides a small insertion-ordered set.
//
// Elements keep the position of their first insertion. Re-adding an element
// that is already present does not move it; discarding an element keeps the
// relative order of the remaining ones.
package orderedset

import (
	"fmt"
	"iter"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Set is an insertion-ordered collection of unique elements.
// The zero value is not usable; create sets with New.
type Set[T comparable] struct {
	m *orderedmap.OrderedMap[T, struct{}]
}

// New returns a set holding items in the order given, duplicates dropped.
func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{m: orderedmap.New[T, struct{}]()}
	s.Update(items...)
	return s
}

// Add appends x unless it is already present.
func (s *Set[T]) Add(x T) {
	if _, ok := s.m.Get(x); ok {
		return
	}
	s.m.Set(x, struct{}{})
}

// Update adds every item in order.
func (s *Set[T]) Update(items ...T) {
	for _, x := range items {
		s.Add(x)
	}
}

// Discard removes x if present.
func (s *Set[T]) Discard(x T) {
	s.m.Delete(x)
}

// Contains reports whether x is in the set.
func (s *Set[T]) Contains(x T) bool {
	_, ok := s.m.Get(x)
	return ok
}

// Len returns the number of elements.
func (s *Set[T]) Len() int {
	return s.m.Len()
}

// All iterates the elements in insertion order.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key) {
				return
			}
		}
	}
}

// Items returns a copy of the elements in insertion order.
func (s *Set[T]) Items() []T {
	items := make([]T, 0, s.m.Len())
	for x := range s.All() {
		items = append(items, x)
	}
	return items
}

// Intersect returns the elements of s that are also in other, in the order of s.
func (s *Set[T]) Intersect(other *Set[T]) *Set[T] {
	out := New[T]()
	for x := range s.All() {
		if other.Contains(x) {
			out.Add(x)
		}
	}
	return out
}

// Equal reports whether the set holds exactly items, in the same order.
func (s *Set[T]) Equal(items []T) bool {
	if s.Len() != len(items) {
		return false
	}
	i := 0
	for x := range s.All() {
		if x != items[i] {
			return false
		}
		i++
	}
	return true
}

// String renders the set as {a, b, c}.
func (s *Set[T]) String() string {
	parts := make([]string, 0, s.Len())
	for x := range s.All() {
		parts = append(parts, fmt.Sprintf("%v", x))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
