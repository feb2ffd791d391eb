package embeddable

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"doc-embeddings/internal/nonempty"
)

// JSON wraps a structured value (maps, slices, structs, json.Number, ...) and
// embeds its compact JSON text as one fragment. Map keys are sorted and HTML
// characters are left unescaped.
type JSON struct {
	Value any
}

func (j JSON) Embeddable() (nonempty.Collection[string], error) {
	text, err := encodeJSON(j.Value)
	if err != nil {
		return nonempty.Collection[string]{}, err
	}
	return nonempty.Of(text), nil
}

// RawJSON is pre-encoded JSON. It is normalized to the same form JSON produces.
type RawJSON []byte

func (r RawJSON) Embeddable() (nonempty.Collection[string], error) {
	v, err := DecodeJSON(r)
	if err != nil {
		return nonempty.Collection[string]{}, err
	}
	return JSON{Value: v}.Embeddable()
}

var errTrailingData = errors.New("trailing data after JSON value")

// DecodeJSON decodes exactly one JSON value, keeping numbers as json.Number so
// their text survives re-encoding. Anything but whitespace after the value is
// rejected. Failures are *SerializationError.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &SerializationError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &SerializationError{Err: errTrailingData}
	}
	return v, nil
}

func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", &SerializationError{Err: err}
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
