package embeddable

import (
	"math"
	"strconv"

	"doc-embeddings/internal/nonempty"
)

// Scalar wrappers. Each one renders its canonical text form as a single fragment.
type (
	String  string
	Bool    bool
	Int     int
	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	Uint    uint
	Uint8   uint8
	Uint16  uint16
	Uint32  uint32
	Uint64  uint64
	Float32 float32
	Float64 float64
	Rune    rune
)

func single(s string) (nonempty.Collection[string], error) {
	return nonempty.Of(s), nil
}

func (s String) Embeddable() (nonempty.Collection[string], error) { return single(string(s)) }

func (b Bool) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatBool(bool(b)))
}

func (i Int) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatInt(int64(i), 10))
}

func (i Int8) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatInt(int64(i), 10))
}

func (i Int16) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatInt(int64(i), 10))
}

func (i Int32) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatInt(int64(i), 10))
}

func (i Int64) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatInt(int64(i), 10))
}

func (u Uint) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatUint(uint64(u), 10))
}

func (u Uint8) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatUint(uint64(u), 10))
}

func (u Uint16) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatUint(uint64(u), 10))
}

func (u Uint32) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatUint(uint64(u), 10))
}

func (u Uint64) Embeddable() (nonempty.Collection[string], error) {
	return single(strconv.FormatUint(uint64(u), 10))
}

// Floats use the shortest representation that round-trips, never exponent
// form. Infinities are written "inf" and "-inf", NaN as "NaN".
func (f Float32) Embeddable() (nonempty.Collection[string], error) {
	return single(formatFloat(float64(f), 32))
}

func (f Float64) Embeddable() (nonempty.Collection[string], error) {
	return single(formatFloat(float64(f), 64))
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

func (r Rune) Embeddable() (nonempty.Collection[string], error) { return single(string(r)) }
