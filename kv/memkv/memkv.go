// Package memkv implements kv.Backend over an in-memory ordered map,
// backed by github.com/google/btree. It has no persistence: all data is
// lost when the process exits. It is the default backend for tests and
// for kvtool's demo subcommand.
//
// Transactions are implemented with a copy-on-write shadow: writes made
// inside a Txn are invisible to the parent store (and to other, concurrent
// transactions) until Commit merges the shadow back in under the store's
// write lock. This gives memkv real isolation despite holding everything
// in a plain Go map-like structure.
package memkv

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/google/btree"

	"kvtoolkit/kv"
)

type item struct {
	key, value []byte
}

func less(a, b item) bool { return bytes.Compare(a.key, b.key) < 0 }

// Store is an in-memory kv.Backend.
type Store struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[item]
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{tree: btree.NewG(32, less)}
}

var _ kv.Backend = (*Store)(nil)
var _ kv.Seeker = (*Store)(nil)

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Get implements kv.Backend.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.tree.Get(item{key: key})
	if !ok {
		return nil, kv.ErrNotFound
	}
	return clone(it.value), nil
}

// Put implements kv.Backend.
func (s *Store) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(item{key: clone(key), value: clone(value)})
	return nil
}

// Delete implements kv.Backend.
func (s *Store) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Delete(item{key: key})
	return nil
}

// Contains implements kv.Backend.
func (s *Store) Contains(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tree.Get(item{key: key})
	return ok, nil
}

// Len implements kv.Backend. It is O(1) for memkv.
func (s *Store) Len() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(s.tree.Len()), nil
}

// BulkGet implements kv.Backend.
func (s *Store) BulkGet(keys [][]byte) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if it, ok := s.tree.Get(item{key: k}); ok {
			out[string(k)] = clone(it.value)
		}
	}
	return out, nil
}

// BulkPut implements kv.Backend.
func (s *Store) BulkPut(kvs map[string][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range kvs {
		s.tree.ReplaceOrInsert(item{key: []byte(k), value: clone(v)})
	}
	return len(kvs), nil
}

// BulkDelete implements kv.Backend.
func (s *Store) BulkDelete(keys [][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := s.tree.Delete(item{key: k}); ok {
			n++
		}
	}
	return n, nil
}

// Range implements kv.Backend.
func (s *Store) Range(start, stop []byte, reverse bool) (kv.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pairs []kv.Pair
	visit := func(it item) bool {
		pairs = append(pairs, kv.Pair{Key: clone(it.key), Value: clone(it.value)})
		return true
	}

	switch {
	case reverse && stop != nil:
		s.tree.DescendLessOrEqual(item{key: stop}, func(it item) bool {
			if start != nil && bytes.Compare(it.key, start) < 0 {
				return false
			}
			return visit(it)
		})
	case reverse:
		s.tree.Descend(func(it item) bool {
			if start != nil && bytes.Compare(it.key, start) < 0 {
				return false
			}
			return visit(it)
		})
	case start != nil:
		s.tree.AscendGreaterOrEqual(item{key: start}, func(it item) bool {
			if stop != nil && bytes.Compare(it.key, stop) > 0 {
				return false
			}
			return visit(it)
		})
	default:
		s.tree.Ascend(func(it item) bool {
			if stop != nil && bytes.Compare(it.key, stop) > 0 {
				return false
			}
			return visit(it)
		})
	}

	return &sliceIterator{pairs: pairs, pos: -1}, nil
}

// PrefixMatch implements kv.Backend.
func (s *Store) PrefixMatch(prefix []byte, limit int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys [][]byte
	s.tree.AscendGreaterOrEqual(item{key: prefix}, func(it item) bool {
		if !bytes.HasPrefix(it.key, prefix) {
			return false
		}
		keys = append(keys, clone(it.key))
		return limit <= 0 || len(keys) < limit
	})
	return keys, nil
}

// Increment implements kv.Backend.
func (s *Store) Increment(key []byte, delta, initial int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := initial + delta
	if it, ok := s.tree.Get(item{key: key}); ok {
		n, err := decodeInt64(it.value)
		if err != nil {
			return 0, err
		}
		cur = n + delta
	}
	s.tree.ReplaceOrInsert(item{key: clone(key), value: encodeInt64(cur)})
	return cur, nil
}

// Transaction implements kv.Backend with a copy-on-write shadow.
func (s *Store) Transaction() (kv.Txn, error) {
	return newTxn(s), nil
}

// Cursor implements kv.Backend.
func (s *Store) Cursor(reverse bool) (*kv.Cursor, error) {
	return kv.NewCursor(s, reverse), nil
}

// Capabilities implements kv.Backend.
func (s *Store) Capabilities() kv.Capabilities {
	return kv.Capabilities{Transactions: true, Regex: false, OrderedLen: true}
}

// --- kv.Seeker, used by kv.Cursor ---

func (s *Store) SeekFirst() ([]byte, []byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.tree.Min()
	if !ok {
		return nil, nil, false, nil
	}
	return clone(it.key), clone(it.value), true, nil
}

func (s *Store) SeekLast() ([]byte, []byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.tree.Max()
	if !ok {
		return nil, nil, false, nil
	}
	return clone(it.key), clone(it.value), true, nil
}

func (s *Store) SeekGE(target []byte) ([]byte, []byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var k, v []byte
	found := false
	s.tree.AscendGreaterOrEqual(item{key: target}, func(it item) bool {
		k, v, found = clone(it.key), clone(it.value), true
		return false
	})
	return k, v, found, nil
}

func (s *Store) SeekLE(target []byte) ([]byte, []byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var k, v []byte
	found := false
	s.tree.DescendLessOrEqual(item{key: target}, func(it item) bool {
		k, v, found = clone(it.key), clone(it.value), true
		return false
	})
	return k, v, found, nil
}

func (s *Store) Next(cur []byte) ([]byte, []byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var k, v []byte
	found := false
	skippedSelf := false
	s.tree.AscendGreaterOrEqual(item{key: cur}, func(it item) bool {
		if !skippedSelf {
			skippedSelf = true
			if bytes.Equal(it.key, cur) {
				return true
			}
		}
		k, v, found = clone(it.key), clone(it.value), true
		return false
	})
	return k, v, found, nil
}

func (s *Store) Prev(cur []byte) ([]byte, []byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var k, v []byte
	found := false
	skippedSelf := false
	s.tree.DescendLessOrEqual(item{key: cur}, func(it item) bool {
		if !skippedSelf {
			skippedSelf = true
			if bytes.Equal(it.key, cur) {
				return true
			}
		}
		k, v, found = clone(it.key), clone(it.value), true
		return false
	})
	return k, v, found, nil
}

type sliceIterator struct {
	pairs []kv.Pair
	pos   int
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.pairs)
}

func (it *sliceIterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.pairs) {
		return nil
	}
	return it.pairs[it.pos].Key
}

func (it *sliceIterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.pairs) {
		return nil
	}
	return it.pairs[it.pos].Value
}

func (it *sliceIterator) Err() error   { return nil }
func (it *sliceIterator) Close() error { return nil }

func encodeInt64(n int64) []byte {
	u := uint64(n) ^ (1 << 63)
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
	return b
}

func decodeInt64(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("memkv: corrupt counter value of length %d", len(b))
	}
	var u uint64
	for i := 0; i < 8; i++ {
		u = u<<8 | uint64(b[i])
	}
	return int64(u ^ (1 << 63)), nil
}
