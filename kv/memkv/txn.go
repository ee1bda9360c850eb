package memkv

import (
	"sync"

	"kvtoolkit/kv"
)

// txn is memkv's scoped transaction: a copy-on-write shadow over the
// parent Store. Reads fall through to the shadow first, then the parent.
// Writes land only in the shadow (a tombstone set records deletions) until
// Commit applies them to the parent under its write lock in one pass, so
// the parent never observes a partial transaction.
type txn struct {
	mu      sync.RWMutex
	parent  *Store
	shadow  map[string][]byte
	deleted map[string]bool
	closed  bool
}

func newTxn(parent *Store) *txn {
	return &txn{
		parent:  parent,
		shadow:  make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

var _ kv.Txn = (*txn)(nil)

func (t *txn) checkOpen() error {
	if t.closed {
		return kv.ErrTxnClosed
	}
	return nil
}

func (t *txn) Get(key []byte) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return t.getLocked(key)
}

// getLocked reads the shadow/tombstone/parent chain without acquiring
// t.mu, for callers that already hold it (in either read or write mode).
func (t *txn) getLocked(key []byte) ([]byte, error) {
	k := string(key)
	if t.deleted[k] {
		return nil, kv.ErrNotFound
	}
	if v, ok := t.shadow[k]; ok {
		return clone(v), nil
	}
	return t.parent.Get(key)
}

func (t *txn) Put(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	k := string(key)
	t.shadow[k] = clone(value)
	delete(t.deleted, k)
	return nil
}

func (t *txn) Delete(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	k := string(key)
	delete(t.shadow, k)
	t.deleted[k] = true
	return nil
}

func (t *txn) Contains(key []byte) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return false, err
	}
	k := string(key)
	if t.deleted[k] {
		return false, nil
	}
	if _, ok := t.shadow[k]; ok {
		return true, nil
	}
	return t.parent.Contains(key)
}

func (t *txn) Len() (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	n, err := t.parent.Len()
	if err != nil {
		return 0, err
	}
	for k := range t.shadow {
		if present, _ := t.parent.Contains([]byte(k)); !present {
			n++
		}
	}
	for k := range t.deleted {
		if present, _ := t.parent.Contains([]byte(k)); present {
			n--
		}
	}
	return n, nil
}

func (t *txn) BulkGet(keys [][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, err := t.Get(k)
		if err == nil {
			out[string(k)] = v
		}
	}
	return out, nil
}

func (t *txn) BulkPut(kvs map[string][]byte) (int, error) {
	for k, v := range kvs {
		if err := t.Put([]byte(k), v); err != nil {
			return 0, err
		}
	}
	return len(kvs), nil
}

func (t *txn) BulkDelete(keys [][]byte) (int, error) {
	n := 0
	for _, k := range keys {
		ok, _ := t.Contains(k)
		if ok {
			n++
		}
		if err := t.Delete(k); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Range materializes the merged view of parent and shadow, since the
// shadow must override parent entries and tombstones must suppress them —
// a merge that is easiest to do eagerly rather than via a lazy merged
// iterator.
func (t *txn) Range(start, stop []byte, reverse bool) (kv.Iterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	base, err := t.parent.Range(start, stop, false)
	if err != nil {
		return nil, err
	}
	merged := make(map[string][]byte)
	for base.Next() {
		merged[string(base.Key())] = clone(base.Value())
	}
	_ = base.Close()

	for k, v := range t.shadow {
		lo, hi, _, _ := kv.NormalizeRange(start, stop, false)
		if inRange([]byte(k), lo, hi) {
			merged[k] = v
		}
	}
	for k := range t.deleted {
		delete(merged, k)
	}

	pairs := make([]kv.Pair, 0, len(merged))
	for k, v := range merged {
		pairs = append(pairs, kv.Pair{Key: []byte(k), Value: v})
	}
	sortPairs(pairs, reverse)
	return &sliceIterator{pairs: pairs, pos: -1}, nil
}

func inRange(key, lo, hi []byte) bool {
	if lo != nil && string(key) < string(lo) {
		return false
	}
	if hi != nil && string(key) > string(hi) {
		return false
	}
	return true
}

func sortPairs(pairs []kv.Pair, reverse bool) {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0; j-- {
			less := string(pairs[j-1].Key) > string(pairs[j].Key)
			if reverse {
				less = string(pairs[j-1].Key) < string(pairs[j].Key)
			}
			if !less {
				break
			}
			pairs[j-1], pairs[j] = pairs[j], pairs[j-1]
		}
	}
}

func (t *txn) PrefixMatch(prefix []byte, limit int) ([][]byte, error) {
	it, err := t.Range(prefix, nil, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var keys [][]byte
	for it.Next() {
		k := it.Key()
		if len(k) < len(prefix) || string(k[:len(prefix)]) != string(prefix) {
			continue
		}
		keys = append(keys, k)
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	return keys, nil
}

func (t *txn) Increment(key []byte, delta, initial int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	cur := initial + delta
	if v, err := t.getLocked(key); err == nil {
		n, derr := decodeInt64(v)
		if derr != nil {
			return 0, derr
		}
		cur = n + delta
	}
	t.shadow[string(key)] = encodeInt64(cur)
	delete(t.deleted, string(key))
	return cur, nil
}

// Transaction on a transaction flattens to the same outermost transaction:
// memkv is a non-nesting backend, so nested Begin calls share the
// enclosing shadow rather than opening an independent one.
func (t *txn) Transaction() (kv.Txn, error) {
	return t, nil
}

func (t *txn) Cursor(reverse bool) (*kv.Cursor, error) {
	return kv.NewCursor(t, reverse), nil
}

func (t *txn) Capabilities() kv.Capabilities {
	return kv.Capabilities{Transactions: true, Regex: false, OrderedLen: false}
}

func (t *txn) SeekFirst() ([]byte, []byte, bool, error) {
	return seekHelper(t, nil, nil, false, true)
}

func (t *txn) SeekLast() ([]byte, []byte, bool, error) {
	return seekHelper(t, nil, nil, true, true)
}

func (t *txn) SeekGE(target []byte) ([]byte, []byte, bool, error) {
	return seekHelper(t, target, nil, false, false)
}

func (t *txn) SeekLE(target []byte) ([]byte, []byte, bool, error) {
	return seekHelper(t, nil, target, true, false)
}

func (t *txn) Next(cur []byte) ([]byte, []byte, bool, error) {
	it, err := t.Range(cur, nil, false)
	if err != nil {
		return nil, nil, false, err
	}
	defer it.Close()
	for it.Next() {
		if string(it.Key()) == string(cur) {
			continue
		}
		return it.Key(), it.Value(), true, nil
	}
	return nil, nil, false, nil
}

func (t *txn) Prev(cur []byte) ([]byte, []byte, bool, error) {
	it, err := t.Range(nil, cur, true)
	if err != nil {
		return nil, nil, false, err
	}
	defer it.Close()
	for it.Next() {
		if string(it.Key()) == string(cur) {
			continue
		}
		return it.Key(), it.Value(), true, nil
	}
	return nil, nil, false, nil
}

func seekHelper(t *txn, lo, hi []byte, reverse, wantEdge bool) ([]byte, []byte, bool, error) {
	it, err := t.Range(lo, hi, reverse)
	if err != nil {
		return nil, nil, false, err
	}
	defer it.Close()
	if it.Next() {
		return it.Key(), it.Value(), true, nil
	}
	_ = wantEdge
	return nil, nil, false, nil
}

// Commit applies every shadow write and tombstone to the parent store in
// one pass under its write lock. Once committed or rolled back, the
// transaction may not be reused.
func (t *txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return kv.ErrTxnClosed
	}
	t.parent.mu.Lock()
	for k := range t.deleted {
		t.parent.tree.Delete(item{key: []byte(k)})
	}
	for k, v := range t.shadow {
		t.parent.tree.ReplaceOrInsert(item{key: []byte(k), value: v})
	}
	t.parent.mu.Unlock()
	t.closed = true
	return nil
}

// Rollback discards the shadow without touching the parent.
func (t *txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.shadow = nil
	t.deleted = nil
	t.closed = true
	return nil
}
