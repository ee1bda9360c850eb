package model

// Instance is a single record in memory: field values keyed by name,
// backed by a plain map rather than a descriptor-mediated struct, per the
// declarative-schema design for this layer.
type Instance struct {
	spec Spec
	data map[string]any
}

func newInstance(spec Spec) *Instance {
	return &Instance{spec: spec, data: make(map[string]any, len(spec.Fields))}
}

// newInstanceWithDefaults constructs an Instance with values supplied,
// falling back to each field's constant Default or invoking its
// DefaultFunc once, per the Model Registry's default-partitioning step.
func newInstanceWithDefaults(spec Spec, values map[string]any) *Instance {
	inst := newInstance(spec)
	for _, f := range spec.Fields {
		if v, ok := values[f.Name]; ok {
			inst.data[f.Name] = v
			continue
		}
		if f.DefaultFunc != nil {
			inst.data[f.Name] = f.DefaultFunc()
			continue
		}
		inst.data[f.Name] = f.Default
	}
	return inst
}

// Get returns the current value of field name, or nil if unset.
func (i *Instance) Get(name string) any {
	return i.data[name]
}

// Set assigns the value of field name.
func (i *Instance) Set(name string, value any) {
	i.data[name] = value
}

// ID returns the instance's primary key, or 0 if unassigned.
func (i *Instance) ID() int64 {
	v, ok := i.data["id"]
	if !ok || v == nil {
		return 0
	}
	id, _ := v.(int64)
	return id
}

// HasID reports whether the instance has been assigned a primary key.
func (i *Instance) HasID() bool {
	return i.ID() != 0
}

func (i *Instance) setID(id int64) {
	i.data["id"] = id
}

// Spec returns the Spec this instance was constructed from.
func (i *Instance) Spec() Spec {
	return i.spec
}
