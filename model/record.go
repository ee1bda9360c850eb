package model

import (
	"encoding/json"
	"fmt"

	"kvtoolkit/kv"
)

func recordKey(model string, id int64) []byte {
	return []byte(fmt.Sprintf("%s:%d", model, id))
}

func fieldKey(model string, id int64, field string) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s", model, id, field))
}

func idSeqKey(model string) []byte {
	return []byte(fmt.Sprintf("id_seq:%s", model))
}

// writeRecord persists every field of inst under the Spec's chosen
// layout: a single self-describing blob when Serialize is true (a JSON
// object mapping field name to its codec-encoded bytes, so decoding a
// blob never depends on anything but the field's own codec), or one key
// per field otherwise.
func writeRecord(backend kv.Backend, spec Spec, inst *Instance) error {
	if spec.Serialize {
		blob := make(map[string][]byte, len(spec.Fields))
		for _, f := range spec.Fields {
			enc, err := f.effectiveCodec().Encode(inst.Get(f.Name))
			if err != nil {
				return fmt.Errorf("model: encode field %s: %w", f.Name, err)
			}
			blob[f.Name] = enc
		}
		body, err := json.Marshal(blob)
		if err != nil {
			return fmt.Errorf("model: marshal record body: %w", err)
		}
		return backend.Put(recordKey(spec.Name, inst.ID()), body)
	}

	for _, f := range spec.Fields {
		enc, err := f.effectiveCodec().Encode(inst.Get(f.Name))
		if err != nil {
			return fmt.Errorf("model: encode field %s: %w", f.Name, err)
		}
		if err := backend.Put(fieldKey(spec.Name, inst.ID(), f.Name), enc); err != nil {
			return err
		}
	}
	return nil
}

// readRecord loads the stored representation of id and decodes it into a
// fresh Instance. It returns ErrNotFound when no stored data exists, and
// ErrConsistency for a serialize=false record with some but not all
// per-field keys present.
func readRecord(backend kv.Backend, spec Spec, id int64) (*Instance, error) {
	if spec.Serialize {
		body, err := backend.Get(recordKey(spec.Name, id))
		if err != nil {
			if err == kv.ErrNotFound {
				return nil, ErrNotFound
			}
			return nil, err
		}
		var blob map[string][]byte
		if err := json.Unmarshal(body, &blob); err != nil {
			return nil, fmt.Errorf("model: unmarshal record body: %w", err)
		}
		inst := newInstance(spec)
		for _, f := range spec.Fields {
			v, err := f.effectiveCodec().Decode(blob[f.Name])
			if err != nil {
				return nil, fmt.Errorf("model: decode field %s: %w", f.Name, err)
			}
			inst.data[f.Name] = v
		}
		return inst, nil
	}

	present := 0
	inst := newInstance(spec)
	for _, f := range spec.Fields {
		enc, err := backend.Get(fieldKey(spec.Name, id, f.Name))
		if err != nil {
			if err == kv.ErrNotFound {
				continue
			}
			return nil, err
		}
		present++
		v, err := f.effectiveCodec().Decode(enc)
		if err != nil {
			return nil, fmt.Errorf("model: decode field %s: %w", f.Name, err)
		}
		inst.data[f.Name] = v
	}
	if present == 0 {
		return nil, ErrNotFound
	}
	if present != len(spec.Fields) {
		return nil, ErrConsistency
	}
	return inst, nil
}

// deleteRecord removes every key belonging to id's stored representation.
func deleteRecord(backend kv.Backend, spec Spec, id int64) error {
	if spec.Serialize {
		return backend.Delete(recordKey(spec.Name, id))
	}
	for _, f := range spec.Fields {
		if err := backend.Delete(fieldKey(spec.Name, id, f.Name)); err != nil {
			return err
		}
	}
	return nil
}

// readIndexedFields loads only the indexed-field subset of a stored
// record, used by Save to compute index deltas without paying for a full
// record load when indexed fields are few relative to the whole record.
func readIndexedFields(backend kv.Backend, spec Spec, id int64, indexed []FieldSpec) (map[string]any, error) {
	out := make(map[string]any, len(indexed))
	if spec.Serialize {
		body, err := backend.Get(recordKey(spec.Name, id))
		if err != nil {
			if err == kv.ErrNotFound {
				return out, nil
			}
			return nil, err
		}
		var blob map[string][]byte
		if err := json.Unmarshal(body, &blob); err != nil {
			return nil, fmt.Errorf("model: unmarshal record body: %w", err)
		}
		for _, f := range indexed {
			v, err := f.effectiveCodec().Decode(blob[f.Name])
			if err != nil {
				return nil, fmt.Errorf("model: decode field %s: %w", f.Name, err)
			}
			out[f.Name] = v
		}
		return out, nil
	}

	for _, f := range indexed {
		enc, err := backend.Get(fieldKey(spec.Name, id, f.Name))
		if err != nil {
			if err == kv.ErrNotFound {
				continue
			}
			return nil, err
		}
		v, err := f.effectiveCodec().Decode(enc)
		if err != nil {
			return nil, fmt.Errorf("model: decode field %s: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}
