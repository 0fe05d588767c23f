// Package objectstore holds the named, order-preserving collection used
// throughout the device model: service lists, embedded-device lists,
// action argument lists and the like all need their declaration order
// preserved (in-args before out-args, the retval argument first among
// out-args) while still supporting name-keyed lookup.
package objectstore

import (
	"fmt"
	"iter"
)

// Object is anything that can live in an ObjectSet: it has a name unique
// within the set and a type identifier used only for diagnostics.
type Object interface {
	Name() string
	TypeID() string
}

// ObjectSet is a name-keyed collection that preserves insertion order.
// The zero value is not usable; construct with NewObjectSet.
type ObjectSet[T Object] struct {
	index map[string]int
	items []T
}

// NewObjectSet returns an empty, ready-to-use ObjectSet.
func NewObjectSet[T Object]() *ObjectSet[T] {
	return &ObjectSet[T]{index: make(map[string]int)}
}

// Insert appends obj, preserving call order. It returns an error if an
// object with the same name already exists, since every set this type
// backs (services, devices, icons, actions, arguments) requires
// unique names.
func (s *ObjectSet[T]) Insert(obj T) error {
	if _, exists := s.index[obj.Name()]; exists {
		return fmt.Errorf("objectstore: duplicate %s %q", obj.TypeID(), obj.Name())
	}
	s.index[obj.Name()] = len(s.items)
	s.items = append(s.items, obj)
	return nil
}

// Contains reports whether an object with obj.Name() is present.
func (s *ObjectSet[T]) Contains(obj T) bool {
	_, ok := s.index[obj.Name()]
	return ok
}

// Get looks up an object by name.
func (s *ObjectSet[T]) Get(name string) (T, bool) {
	i, ok := s.index[name]
	if !ok {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// Len returns the number of objects in the set.
func (s *ObjectSet[T]) Len() int { return len(s.items) }

// All iterates the set in insertion order.
func (s *ObjectSet[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range s.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Slice returns a copy of the ordered backing slice.
func (s *ObjectSet[T]) Slice() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
