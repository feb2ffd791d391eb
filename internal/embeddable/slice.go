package embeddable

import (
	"fmt"

	"doc-embeddings/internal/nonempty"
)

// Slice embeds each element in order and flattens the results.
// The first element that fails stops the whole call and its error is returned
// unchanged; no partial fragment list is produced. A nil element fails with
// ErrNilValue.
type Slice[T Embeddable] []T

func (s Slice[T]) Embeddable() (nonempty.Collection[string], error) {
	parts := make([]nonempty.Collection[string], 0, len(s))
	for _, item := range s {
		if any(item) == nil {
			return nonempty.Collection[string]{}, ErrNilValue
		}
		c, err := item.Embeddable()
		if err != nil {
			return nonempty.Collection[string]{}, err
		}
		parts = append(parts, c)
	}
	return nonempty.Merge(parts...)
}

// Of adapts a plain Go value. Embeddable values are returned as is, scalars map
// to their wrapper types, []string and []any become slices and anything else
// is treated as a structured value. rune is int32, so characters must be
// wrapped in Rune explicitly.
func Of(v any) (Embeddable, error) {
	switch x := v.(type) {
	case nil:
		return nil, ErrNilValue
	case Embeddable:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int8(x), nil
	case int16:
		return Int16(x), nil
	case int32:
		return Int32(x), nil
	case int64:
		return Int64(x), nil
	case uint:
		return Uint(x), nil
	case uint8:
		return Uint8(x), nil
	case uint16:
		return Uint16(x), nil
	case uint32:
		return Uint32(x), nil
	case uint64:
		return Uint64(x), nil
	case float32:
		return Float32(x), nil
	case float64:
		return Float64(x), nil
	case []string:
		out := make(Slice[String], len(x))
		for i, s := range x {
			out[i] = String(s)
		}
		return out, nil
	case []any:
		out := make(Slice[Embeddable], len(x))
		for i, item := range x {
			if item == nil {
				out[i] = JSON{}
				continue
			}
			e, err := Of(item)
			if err != nil {
				return nil, fmt.Errorf("embeddable: element %d: %w", i, err)
			}
			out[i] = e
		}
		return out, nil
	default:
		return JSON{Value: x}, nil
	}
}
