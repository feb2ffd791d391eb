// Package embeddable defines the contract domain types implement to expose the
// text fragments that should be turned into embedding vectors.
//
// A type opts in by implementing Embeddable:
//
//	type wordDefinition struct {
//		ID          string
//		Word        string
//		Definitions []string
//	}
//
//	func (d wordDefinition) Embeddable() (nonempty.Collection[string], error) {
//		// Only the definitions are embedded.
//		return nonempty.FromSlice(d.Definitions)
//	}
//
// The order of the returned fragments is the only key that ties a fragment to
// the vector produced for it, so it must be kept end to end.
package embeddable

import (
	"errors"
	"fmt"

	"doc-embeddings/internal/nonempty"
)

// Embeddable is implemented by values that can be turned into an ordered,
// non-empty list of text fragments.
type Embeddable interface {
	Embeddable() (nonempty.Collection[string], error)
}

// Func adapts an ordinary function to the Embeddable interface.
type Func func() (nonempty.Collection[string], error)

// Embeddable calls f.
func (f Func) Embeddable() (nonempty.Collection[string], error) {
	return f()
}

// ErrEmptyInput is returned when a value yields no fragments at all.
var ErrEmptyInput = nonempty.ErrEmptyInput

// ErrNilValue is returned for a nil Embeddable, including a nil slice element.
var ErrNilValue = errors.New("embeddable: nil value")

// ErrSerialization matches any *SerializationError with errors.Is.
var ErrSerialization = &SerializationError{}

// SerializationError reports a structured value that could not be rendered to text.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	if e.Err == nil {
		return "serialization error"
	}
	return fmt.Sprintf("serialization error: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrSerialization) match every SerializationError.
func (e *SerializationError) Is(target error) bool {
	_, ok := target.(*SerializationError)
	return ok
}

// Fragments returns every fragment of e in order.
func Fragments(e Embeddable) ([]string, error) {
	if e == nil {
		return nil, ErrNilValue
	}
	c, err := e.Embeddable()
	if err != nil {
		return nil, err
	}
	return c.All(), nil
}
