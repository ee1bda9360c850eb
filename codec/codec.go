// Package codec implements the typed field encodings used by package
// model to turn Go values into order-preserving byte keys. Every codec is
// a total function between a value and a byte slice: encoding nil or an
// absent value always produces the empty byte string, which sorts before
// every non-empty encoding, and decoding a nil byte slice always produces
// nil.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Codec converts between a Go value and its ordered byte encoding.
type Codec interface {
	// Name identifies the codec for diagnostics and for FieldSpec
	// equality checks across model.Extend overrides.
	Name() string

	// Encode converts v to bytes. Encode(nil) always returns nil.
	Encode(v any) ([]byte, error)

	// Decode converts bytes back to a value. Decode(nil) always
	// returns nil.
	Decode(b []byte) (any, error)
}

// ErrInvalidValue is returned when Encode or Decode receives a value or
// byte string outside the codec's domain.
type ErrInvalidValue struct {
	Codec string
	Value any
	Cause error
}

func (e *ErrInvalidValue) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("codec %s: invalid value %v: %v", e.Codec, e.Value, e.Cause)
	}
	return fmt.Sprintf("codec %s: invalid value %v", e.Codec, e.Value)
}

func (e *ErrInvalidValue) Unwrap() error { return e.Cause }

// stringCodec is the identity encoding: a String field's bytes are its
// UTF-8 representation verbatim.
type stringCodec struct{}

// String is the codec for raw text fields.
var String Codec = stringCodec{}

func (stringCodec) Name() string { return "string" }

func (stringCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, &ErrInvalidValue{Codec: "string", Value: v}
	}
	return []byte(s), nil
}

func (stringCodec) Decode(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	return string(b), nil
}

// longCodec stores a signed 64-bit integer as 8-byte big-endian
// two's-complement. This preserves ordering for non-negative values
// only; use OrderPreservingLong when negative values must sort
// correctly.
type longCodec struct{}

// Long is the raw big-endian signed-integer codec.
var Long Codec = longCodec{}

func (longCodec) Name() string { return "long" }

func (longCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, &ErrInvalidValue{Codec: "long", Value: v, Cause: err}
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b, nil
}

func (longCodec) Decode(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) != 8 {
		return nil, &ErrInvalidValue{Codec: "long", Value: b}
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// orderPreservingLongCodec applies a sign-bit-flip bijection: flipping
// the top bit of the two's-complement representation makes unsigned
// big-endian comparison agree with signed numeric comparison across the
// full int64 domain, including negatives.
type orderPreservingLongCodec struct{}

// OrderPreservingLong is the monotonic signed-integer codec: opt into
// this, instead of Long, on a FieldSpec with Monotonic set, when an index
// needs correct ordering across negative and non-negative values.
var OrderPreservingLong Codec = orderPreservingLongCodec{}

func (orderPreservingLongCodec) Name() string { return "long_monotonic" }

func (orderPreservingLongCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, &ErrInvalidValue{Codec: "long_monotonic", Value: v, Cause: err}
	}
	u := uint64(n) ^ (1 << 63)
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, u)
	return b, nil
}

func (orderPreservingLongCodec) Decode(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) != 8 {
		return nil, &ErrInvalidValue{Codec: "long_monotonic", Value: b}
	}
	u := binary.BigEndian.Uint64(b) ^ (1 << 63)
	return int64(u), nil
}

// floatCodec stores an IEEE-754 double as 8-byte big-endian of its bit
// pattern. Like Long, this does not preserve ordering for negative
// values.
type floatCodec struct{}

// Float is the raw big-endian IEEE-754 double codec.
var Float Codec = floatCodec{}

func (floatCodec) Name() string { return "float" }

func (floatCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return nil, &ErrInvalidValue{Codec: "float", Value: v, Cause: err}
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(f))
	return b, nil
}

func (floatCodec) Decode(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) != 8 {
		return nil, &ErrInvalidValue{Codec: "float", Value: b}
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// orderPreservingFloatCodec applies the Design Notes' bijection for
// doubles: if the sign bit is set (negative), flip every bit; otherwise
// flip only the sign bit. This yields an unsigned big-endian ordering
// matching IEEE-754 total order for all finite values.
type orderPreservingFloatCodec struct{}

// OrderPreservingFloat is the monotonic float codec.
var OrderPreservingFloat Codec = orderPreservingFloatCodec{}

func (orderPreservingFloatCodec) Name() string { return "float_monotonic" }

func floatOrderBits(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

func floatFromOrderBits(u uint64) float64 {
	if u&(1<<63) != 0 {
		return math.Float64frombits(u &^ (1 << 63))
	}
	return math.Float64frombits(^u)
}

func (orderPreservingFloatCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return nil, &ErrInvalidValue{Codec: "float_monotonic", Value: v, Cause: err}
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, floatOrderBits(f))
	return b, nil
}

func (orderPreservingFloatCodec) Decode(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) != 8 {
		return nil, &ErrInvalidValue{Codec: "float_monotonic", Value: b}
	}
	return floatFromOrderBits(binary.BigEndian.Uint64(b)), nil
}

const dateLayout = "2006-01-02"
const dateTimeLayout = "2006-01-02 15:04:05.000000"

// dateCodec encodes a date as its ISO YYYY-MM-DD text; lexicographic and
// calendar order coincide for this layout.
type dateCodec struct{}

// Date is the codec for calendar-date fields.
var Date Codec = dateCodec{}

func (dateCodec) Name() string { return "date" }

func (dateCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	t, err := toTime(v)
	if err != nil {
		return nil, &ErrInvalidValue{Codec: "date", Value: v, Cause: err}
	}
	return []byte(t.Format(dateLayout)), nil
}

func (dateCodec) Decode(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, string(b))
	if err != nil {
		return nil, &ErrInvalidValue{Codec: "date", Value: string(b), Cause: err}
	}
	return t, nil
}

// dateTimeCodec encodes a timestamp as its ISO text with microsecond
// precision; lexicographic and chronological order coincide for this
// layout.
type dateTimeCodec struct{}

// DateTime is the codec for timestamp fields.
var DateTime Codec = dateTimeCodec{}

func (dateTimeCodec) Name() string { return "datetime" }

func (dateTimeCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	t, err := toTime(v)
	if err != nil {
		return nil, &ErrInvalidValue{Codec: "datetime", Value: v, Cause: err}
	}
	return []byte(t.UTC().Format(dateTimeLayout)), nil
}

func (dateTimeCodec) Decode(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	t, err := time.Parse(dateTimeLayout, string(b))
	if err != nil {
		return nil, &ErrInvalidValue{Codec: "datetime", Value: string(b), Cause: err}
	}
	return t.UTC(), nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected float, got %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if parsed, err := time.Parse(dateTimeLayout, t); err == nil {
			return parsed, nil
		}
		return time.Parse(dateLayout, t)
	default:
		return time.Time{}, fmt.Errorf("expected time.Time or date string, got %T", v)
	}
}
