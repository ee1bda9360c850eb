package model

import (
	"sync/atomic"

	"kvtoolkit/codec"
)

// declCounter is the process-wide monotonic declaration-order counter.
// Every NewField call draws the next value, so that fields declared
// across independent Spec values still sort relative to each other in
// the order they were declared, matching the concurrency model's
// requirement that this counter be atomic.
var declCounter atomic.Uint64

// FieldSpec is a declarative description of one model attribute: a name,
// a codec governing its byte encoding, whether it is indexed, its
// default, and the order it was declared in. Unlike a descriptor-based
// field, a FieldSpec carries no binding to any particular struct; the
// same FieldSpec value can be reused across Spec values via Extend.
type FieldSpec struct {
	Name  string
	Codec codec.Codec

	// Indexed builds a secondary Index for this field when true.
	Indexed bool

	// Monotonic selects the order-preserving variant of Long/Float
	// codecs when true, per the sign-bit-flip bijection documented for
	// numeric fields with negative values.
	Monotonic bool

	// Default is a constant default value, used when DefaultFunc is nil.
	Default any

	// DefaultFunc, when set, is invoked once per constructed instance
	// rather than shared as a single constant.
	DefaultFunc func() any

	order uint64
}

// FieldOption configures a FieldSpec at construction.
type FieldOption func(*FieldSpec)

// Indexed marks the field for secondary-index construction.
func Indexed() FieldOption {
	return func(f *FieldSpec) { f.Indexed = true }
}

// WithDefault sets a constant default value.
func WithDefault(v any) FieldOption {
	return func(f *FieldSpec) { f.Default = v }
}

// WithDefaultFunc sets a per-instance default producer.
func WithDefaultFunc(fn func() any) FieldOption {
	return func(f *FieldSpec) { f.DefaultFunc = fn }
}

// Monotonic selects the order-preserving numeric codec variant.
func Monotonic() FieldOption {
	return func(f *FieldSpec) { f.Monotonic = true }
}

// NewField declares a field, drawing its declaration order from the
// process-wide counter.
func NewField(name string, c codec.Codec, opts ...FieldOption) FieldSpec {
	f := FieldSpec{Name: name, Codec: c, order: declCounter.Add(1)}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// effectiveCodec returns the codec actually used to encode this field's
// values: the monotonic variant of Long/Float when Monotonic is set, the
// declared Codec otherwise.
func (f FieldSpec) effectiveCodec() codec.Codec {
	if !f.Monotonic {
		return f.Codec
	}
	switch f.Codec {
	case codec.Long:
		return codec.OrderPreservingLong
	case codec.Float:
		return codec.OrderPreservingFloat
	default:
		return f.Codec
	}
}
