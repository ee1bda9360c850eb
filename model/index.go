package model

import (
	"bytes"
	"fmt"
	"strconv"

	"kvtoolkit/codec"
	"kvtoolkit/kv"
)

const sep = "\xff"

// Index maintains the secondary-index sub-range for one (model, field)
// pair: keys of shape idx:<model>:<field>\xff<encoded-value>\xff<encoded-pk>,
// plus a sentinel key idx:<model>:<field>\xff\xff\xff bounding the range
// from above.
type Index struct {
	model string
	field string
	codec codec.Codec
}

func newIndex(model, field string, c codec.Codec) *Index {
	return &Index{model: model, field: field, codec: c}
}

func (ix *Index) prefix() []byte {
	return []byte(fmt.Sprintf("idx:%s:%s", ix.model, ix.field))
}

func (ix *Index) fieldPrefix() []byte {
	return append(ix.prefix(), sep...)
}

func (ix *Index) sentinelKey() []byte {
	return append(ix.fieldPrefix(), sep+sep...)
}

func (ix *Index) valueKey(encValue []byte) []byte {
	return append(append([]byte{}, ix.fieldPrefix()...), encValue...)
}

func (ix *Index) entryPrefix(encValue []byte) []byte {
	return append(ix.valueKey(encValue), sep...)
}

func (ix *Index) entryKey(encValue []byte, pk int64) ([]byte, error) {
	encPk, err := codec.Long.Encode(pk)
	if err != nil {
		return nil, err
	}
	return append(ix.entryPrefix(encValue), encPk...), nil
}

// EnsureSentinel writes this index's sentinel key if absent. Store calls
// this before writing each entry, so the sentinel exists as soon as the
// index holds any entry; an index with no entries has no sentinel key.
func (ix *Index) EnsureSentinel(backend kv.Backend) error {
	ok, err := backend.Contains(ix.sentinelKey())
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return backend.Put(ix.sentinelKey(), nil)
}

// Store writes an index entry plus sentinel for (value, pk). A nil value
// is not indexed, per the invariant that index entries correspond only to
// records whose indexed field is non-null.
func (ix *Index) Store(backend kv.Backend, value any, pk int64) error {
	if value == nil {
		return nil
	}
	encValue, err := ix.codec.Encode(value)
	if err != nil {
		return err
	}
	key, err := ix.entryKey(encValue, pk)
	if err != nil {
		return err
	}
	if err := ix.EnsureSentinel(backend); err != nil {
		return err
	}
	return backend.Put(key, []byte(strconv.FormatInt(pk, 10)))
}

// Delete removes the index entry for (value, pk). A nil value has no
// entry to remove.
func (ix *Index) Delete(backend kv.Backend, value any, pk int64) error {
	if value == nil {
		return nil
	}
	encValue, err := ix.codec.Encode(value)
	if err != nil {
		return err
	}
	key, err := ix.entryKey(encValue, pk)
	if err != nil {
		return err
	}
	return backend.Delete(key)
}

// Query returns the primary keys satisfying field op value, in ascending
// order by encoded value then ascending pk — which falls directly out of
// ascending key order, since the key embeds value then pk in that order.
func (ix *Index) Query(backend kv.Backend, value any, op Op) ([]int64, error) {
	encValue, err := ix.codec.Encode(value)
	if err != nil {
		return nil, err
	}

	var lo, hi []byte
	excludePrefix := [][]byte(nil)

	switch op {
	case OpEq:
		lo = ix.entryPrefix(encValue)
		hi = append(append([]byte{}, lo...), sep...)
	case OpLt:
		lo = ix.fieldPrefix()
		hi = ix.valueKey(encValue)
	case OpLte:
		lo = ix.fieldPrefix()
		hi = append(append([]byte{}, ix.entryPrefix(encValue)...), sep...)
	case OpGt:
		lo = append(append([]byte{}, ix.entryPrefix(encValue)...), sep...)
		hi = ix.sentinelKey()
	case OpGte:
		lo = ix.valueKey(encValue)
		hi = ix.sentinelKey()
	case OpNe:
		lo = ix.fieldPrefix()
		hi = ix.sentinelKey()
		excludePrefix = [][]byte{ix.entryPrefix(encValue)}
	case OpStartsWith:
		lo = ix.valueKey(encValue)
		hi = append(append([]byte{}, ix.entryPrefix(encValue)...), sep...)
	default:
		return nil, fmt.Errorf("model: unknown operator %q", op)
	}

	if err := kv.CheckRange(lo, hi); err != nil {
		return nil, err
	}

	it, err := backend.Range(lo, hi, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	sentinel := ix.sentinelKey()
	var pks []int64
	for it.Next() {
		key := it.Key()
		if bytes.Equal(key, sentinel) {
			continue
		}
		excluded := false
		for _, p := range excludePrefix {
			if bytes.HasPrefix(key, p) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		pk, err := strconv.ParseInt(string(it.Value()), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("model: corrupt index entry %q: %w", key, err)
		}
		pks = append(pks, pk)
	}
	return pks, it.Err()
}
