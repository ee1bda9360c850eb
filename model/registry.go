// Package model implements the schema-ful record layer: declarative
// field specs, a registry binding a Spec to a storage backend, per-field
// secondary indexes, and a Boolean expression-tree query compiler.
package model

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"go.uber.org/zap"

	"kvtoolkit/kv"
)

// Registry binds a Spec to a kv.Backend, building an Index for every
// field flagged Indexed and exposing Create/Load/Save/Delete/Get/Query.
type Registry struct {
	spec    Spec
	backend kv.Backend
	indexes map[string]*Index
	log     *zap.SugaredLogger
}

// RegistryOption configures a Registry at construction.
type RegistryOption func(*Registry)

// WithLogger injects a logger; the default is a no-op logger, so callers
// that do not care about registry diagnostics pay nothing for them.
func WithLogger(l *zap.SugaredLogger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry builds a Registry for spec over backend, constructing an
// Index for every indexed field.
func NewRegistry(spec Spec, backend kv.Backend, opts ...RegistryOption) *Registry {
	r := &Registry{
		spec:    spec,
		backend: backend,
		indexes: make(map[string]*Index),
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, f := range spec.Fields {
		if f.Indexed {
			r.indexes[f.Name] = newIndex(spec.Name, f.Name, f.effectiveCodec())
		}
	}
	return r
}

// Spec returns the bound Spec.
func (r *Registry) Spec() Spec { return r.spec }

func (r *Registry) indexedFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range r.spec.Fields {
		if f.Indexed {
			out = append(out, f)
		}
	}
	return out
}

// Create builds a new in-memory Instance from values, applying field
// defaults for anything not supplied. The instance is not yet persisted;
// call Save to assign an id and write it.
func (r *Registry) Create(values map[string]any) *Instance {
	return newInstanceWithDefaults(r.spec, values)
}

// Save persists inst, following the Record Storage algorithm: optionally
// scoped in a backend transaction, allocating an id on first save,
// writing the record body, and reconciling every indexed field's entry
// against its prior value.
func (r *Registry) Save(inst *Instance, atomic bool) (err error) {
	backend := r.backend
	if atomic {
		txn, terr := r.backend.Transaction()
		if terr != nil {
			return terr
		}
		defer kv.Finish(txn, &err)
		backend = txn
	}

	var priorIndexed map[string]any
	indexed := r.indexedFields()
	if len(indexed) > 0 && inst.HasID() {
		priorIndexed, err = readIndexedFields(backend, r.spec, inst.ID(), indexed)
		if err != nil {
			return err
		}
	}

	if !inst.HasID() {
		id, ierr := backend.Increment(idSeqKey(r.spec.Name), 1, 0)
		if ierr != nil {
			return ierr
		}
		inst.setID(id)
	}

	if err = writeRecord(backend, r.spec, inst); err != nil {
		return err
	}

	for _, f := range indexed {
		newVal := inst.Get(f.Name)
		oldVal, hadOld := priorIndexed[f.Name]
		if hadOld && !valuesEqual(oldVal, newVal) {
			if err = r.indexes[f.Name].Delete(backend, oldVal, inst.ID()); err != nil {
				return err
			}
		}
		if !hadOld || !valuesEqual(oldVal, newVal) {
			if err = r.indexes[f.Name].Store(backend, newVal, inst.ID()); err != nil {
				return err
			}
		}
	}

	r.log.Debugw("saved record", "model", r.spec.Name, "id", inst.ID())
	return nil
}

// Load reads the record stored at pk.
func (r *Registry) Load(pk int64) (*Instance, error) {
	return readRecord(r.backend, r.spec, pk)
}

// Delete removes inst's record body and every index entry derived from
// its current field values, in one backend transaction.
func (r *Registry) Delete(inst *Instance) (err error) {
	txn, err := r.backend.Transaction()
	if err != nil {
		return err
	}
	defer kv.Finish(txn, &err)

	for _, f := range r.indexedFields() {
		if err = r.indexes[f.Name].Delete(txn, inst.Get(f.Name), inst.ID()); err != nil {
			return err
		}
	}
	if err = deleteRecord(txn, r.spec, inst.ID()); err != nil {
		return err
	}
	r.log.Debugw("deleted record", "model", r.spec.Name, "id", inst.ID())
	return nil
}

// Get returns the first instance (ascending id) matching expr, or
// ErrNotFound if none match.
func (r *Registry) Get(expr Expr) (*Instance, error) {
	results, err := r.Query(expr)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results[0], nil
}

// Query compiles expr into index range scans, combines the resulting
// primary-key sets per the Boolean tree, sorts the final set ascending,
// and loads each matching record in that order.
func (r *Registry) Query(expr Expr) ([]*Instance, error) {
	bitmap, err := r.compile(expr)
	if err != nil {
		return nil, err
	}
	ids := bitmap.ToArray()
	out := make([]*Instance, 0, len(ids))
	for _, id := range ids {
		inst, err := r.Load(int64(id))
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// compile walks expr bottom-up, dispatching leaves to their Index and
// combining internal nodes via roaring64 bitmap intersection/union.
func (r *Registry) compile(expr Expr) (*roaring64.Bitmap, error) {
	switch e := expr.(type) {
	case Cmp:
		ix, ok := r.indexes[e.Field]
		if !ok {
			if _, exists := r.spec.Field(e.Field); !exists {
				return nil, fmt.Errorf("%w: %s", ErrNoSuchField, e.Field)
			}
			return nil, fmt.Errorf("%w: %s", ErrNotIndexed, e.Field)
		}
		pks, err := ix.Query(r.backend, e.Value, e.Op)
		if err != nil {
			return nil, err
		}
		bm := roaring64.New()
		for _, pk := range pks {
			bm.Add(uint64(pk))
		}
		return bm, nil

	case And:
		left, err := r.compile(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.compile(e.Right)
		if err != nil {
			return nil, err
		}
		left.And(right)
		return left, nil

	case Or:
		left, err := r.compile(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.compile(e.Right)
		if err != nil {
			return nil, err
		}
		left.Or(right)
		return left, nil

	default:
		return nil, ErrMalformedExpr
	}
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
