package model

import (
	"sort"

	"kvtoolkit/codec"
)

// Spec is the declarative schema for a model: a logical name, an ordered
// list of fields, and the serialize flag governing record layout (a
// single opaque blob per record vs. one key per field).
type Spec struct {
	Name      string
	Fields    []FieldSpec
	Serialize bool
}

// NewSpec builds a Spec from a flat field list, performing the class-
// declaration steps that do not require inheritance: injecting a
// synthetic id field if absent, and sorting the final field list by
// declaration order.
func NewSpec(name string, serialize bool, fields ...FieldSpec) Spec {
	merged := mergeFields(nil, fields)
	if !hasField(merged, "id") {
		merged = append(merged, NewField("id", codec.Long))
	}
	sortFieldsByOrder(merged)
	return Spec{Name: name, Fields: merged, Serialize: serialize}
}

// Extend builds a new Spec named name by concatenating base's fields with
// overrides, replacing any base field an override names and appending the
// rest, per the field-inheritance rule: later-declared fields override
// earlier ones by name. The new Spec inherits base's Serialize flag.
func Extend(name string, base Spec, overrides ...FieldSpec) Spec {
	return NewSpec(name, base.Serialize, mergeFields(base.Fields, overrides)...)
}

// Field looks up a field by name, returning ok=false if absent.
func (s Spec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func hasField(fields []FieldSpec, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// mergeFields concatenates base and overrides, with overrides replacing
// any base field of the same name and appending any field whose name is
// new. The result is sorted by declaration order, so an override sits at
// the position of its own declaration, not that of the field it replaces.
func mergeFields(base, overrides []FieldSpec) []FieldSpec {
	byName := make(map[string]FieldSpec, len(base)+len(overrides))
	var names []string
	for _, f := range base {
		byName[f.Name] = f
		names = append(names, f.Name)
	}
	for _, f := range overrides {
		if _, exists := byName[f.Name]; !exists {
			names = append(names, f.Name)
		}
		byName[f.Name] = f
	}
	out := make([]FieldSpec, len(names))
	for i, n := range names {
		out[i] = byName[n]
	}
	sortFieldsByOrder(out)
	return out
}

func sortFieldsByOrder(fields []FieldSpec) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].order < fields[j].order
	})
}
