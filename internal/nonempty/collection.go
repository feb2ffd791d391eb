// Package nonempty provides an ordered, immutable collection that always holds
// at least one element.
package nonempty

import (
	"encoding/json"
	"errors"
)

// ErrEmptyInput is returned when a collection would be built from zero elements.
var ErrEmptyInput = errors.New("cannot build a non-empty collection from empty input")

// Collection is an ordered sequence with a designated first element and zero or
// more remaining elements. Values returned by this package always hold at least
// one element; the zero value is not valid and reports Len() == 0.
type Collection[T any] struct {
	first T
	rest  []T
	valid bool
}

// Of returns a one-element collection.
func Of[T any](item T) Collection[T] {
	return Collection[T]{first: item, valid: true}
}

// FromSlice builds a collection from items, preserving their order.
// It returns ErrEmptyInput when items is empty.
func FromSlice[T any](items []T) (Collection[T], error) {
	if len(items) == 0 {
		return Collection[T]{}, ErrEmptyInput
	}
	c := Collection[T]{first: items[0], valid: true}
	if len(items) > 1 {
		c.rest = make([]T, len(items)-1)
		copy(c.rest, items[1:])
	}
	return c, nil
}

// MustFromSlice is like FromSlice but panics on empty input.
// Only use it for literals and tests.
func MustFromSlice[T any](items []T) Collection[T] {
	c, err := FromSlice(items)
	if err != nil {
		panic(err)
	}
	return c
}

// Merge flattens collections into one, concatenating each collection's
// elements in the order the collections are given.
// Merging zero collections returns ErrEmptyInput.
func Merge[T any](collections ...Collection[T]) (Collection[T], error) {
	n := 0
	for _, c := range collections {
		n += c.Len()
	}
	items := make([]T, 0, n)
	for _, c := range collections {
		items = c.appendTo(items)
	}
	return FromSlice(items)
}

// Map applies fn to every element, keeping order.
func Map[T, U any](c Collection[T], fn func(T) U) Collection[U] {
	if !c.valid {
		return Collection[U]{}
	}
	out := Collection[U]{first: fn(c.first), valid: true}
	if len(c.rest) > 0 {
		out.rest = make([]U, len(c.rest))
		for i, v := range c.rest {
			out.rest[i] = fn(v)
		}
	}
	return out
}

// First returns the first element.
func (c Collection[T]) First() T {
	return c.first
}

// Rest returns the elements after the first one, possibly empty.
func (c Collection[T]) Rest() []T {
	out := make([]T, len(c.rest))
	copy(out, c.rest)
	return out
}

// All returns every element in insertion order.
func (c Collection[T]) All() []T {
	return c.appendTo(make([]T, 0, c.Len()))
}

// Len reports the number of elements.
func (c Collection[T]) Len() int {
	if !c.valid {
		return 0
	}
	return 1 + len(c.rest)
}

// Each calls fn for every element with its position.
func (c Collection[T]) Each(fn func(i int, v T)) {
	if !c.valid {
		return
	}
	fn(0, c.first)
	for i, v := range c.rest {
		fn(i+1, v)
	}
}

func (c Collection[T]) appendTo(dst []T) []T {
	if !c.valid {
		return dst
	}
	dst = append(dst, c.first)
	return append(dst, c.rest...)
}

// MarshalJSON encodes the collection as a plain JSON array.
func (c Collection[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.All())
}

// UnmarshalJSON decodes a JSON array, rejecting an empty one with ErrEmptyInput.
func (c *Collection[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	decoded, err := FromSlice(items)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}
