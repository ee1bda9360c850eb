package boltkv

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"

	"kvtoolkit/kv"
)

// txn wraps a real bbolt write transaction. bbolt holds a single
// process-wide writer lock per database, so nested use of Transaction on
// an already-open txn flattens to the same underlying bbolt.Tx rather
// than attempting to acquire the writer lock a second time.
type txn struct {
	tx     *bbolt.Tx
	bucket *bbolt.Bucket
	closed bool
}

var _ kv.Txn = (*txn)(nil)

func (t *txn) checkOpen() error {
	if t.closed {
		return kv.ErrTxnClosed
	}
	return nil
}

func (t *txn) Get(key []byte) ([]byte, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	v := t.bucket.Get(key)
	if v == nil {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (t *txn) Put(key, value []byte) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	return t.bucket.Put(key, value)
}

func (t *txn) Delete(key []byte) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	return t.bucket.Delete(key)
}

func (t *txn) Contains(key []byte) (bool, error) {
	if err := t.checkOpen(); err != nil {
		return false, err
	}
	return t.bucket.Get(key) != nil, nil
}

func (t *txn) Len() (uint64, error) {
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	return uint64(t.bucket.Stats().KeyN), nil
}

func (t *txn) BulkGet(keys [][]byte) (map[string][]byte, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v := t.bucket.Get(k); v != nil {
			out[string(k)] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (t *txn) BulkPut(kvs map[string][]byte) (int, error) {
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	for k, v := range kvs {
		if err := t.bucket.Put([]byte(k), v); err != nil {
			return 0, err
		}
	}
	return len(kvs), nil
}

func (t *txn) BulkDelete(keys [][]byte) (int, error) {
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	n := 0
	for _, k := range keys {
		if t.bucket.Get(k) != nil {
			n++
		}
		if err := t.bucket.Delete(k); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (t *txn) Range(start, stop []byte, reverse bool) (kv.Iterator, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	c := t.bucket.Cursor()
	var pairs []kv.Pair
	collect := func(k, v []byte) {
		pairs = append(pairs, kv.Pair{Key: dup(k), Value: dup(v)})
	}
	if reverse {
		var k, v []byte
		if stop != nil {
			k, v = c.Seek(stop)
			if k == nil || bytes.Compare(k, stop) > 0 {
				k, v = c.Prev()
			}
		} else {
			k, v = c.Last()
		}
		for k != nil {
			if start != nil && bytes.Compare(k, start) < 0 {
				break
			}
			collect(k, v)
			k, v = c.Prev()
		}
		return &sliceIterator{pairs: pairs, pos: -1}, nil
	}
	var k, v []byte
	if start != nil {
		k, v = c.Seek(start)
	} else {
		k, v = c.First()
	}
	for k != nil {
		if stop != nil && bytes.Compare(k, stop) > 0 {
			break
		}
		collect(k, v)
		k, v = c.Next()
	}
	return &sliceIterator{pairs: pairs, pos: -1}, nil
}

func (t *txn) PrefixMatch(prefix []byte, limit int) ([][]byte, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	c := t.bucket.Cursor()
	var keys [][]byte
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, dup(k))
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	return keys, nil
}

func (t *txn) Increment(key []byte, delta, initial int64) (int64, error) {
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	cur := initial + delta
	if v := t.bucket.Get(key); v != nil {
		n, err := decodeInt64(v)
		if err != nil {
			return 0, err
		}
		cur = n + delta
	}
	if err := t.bucket.Put(key, encodeInt64(cur)); err != nil {
		return 0, err
	}
	return cur, nil
}

// Transaction flattens nested use to the same outermost bbolt transaction,
// since bbolt does not support nested write transactions against a single
// database handle.
func (t *txn) Transaction() (kv.Txn, error) {
	return t, nil
}

func (t *txn) Cursor(reverse bool) (*kv.Cursor, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return kv.NewCursor(&txnSeeker{t: t}, reverse), nil
}

func (t *txn) Capabilities() kv.Capabilities {
	return kv.Capabilities{Transactions: true, Regex: false, OrderedLen: false}
}

// Commit finalizes the underlying bbolt write transaction.
func (t *txn) Commit() error {
	if t.closed {
		return kv.ErrTxnClosed
	}
	t.closed = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("boltkv: commit: %w", err)
	}
	return nil
}

// Rollback discards the underlying bbolt write transaction. A rollback
// after a successful commit is a no-op, matching the kv.Txn contract.
func (t *txn) Rollback() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.tx.Rollback()
}

// txnSeeker exposes a live bbolt cursor within an already-open write
// transaction, so a Cursor obtained from inside a transaction observes
// its own uncommitted writes immediately.
type txnSeeker struct {
	t *txn
}

func (s *txnSeeker) cursor() *bbolt.Cursor { return s.t.bucket.Cursor() }

func (s *txnSeeker) SeekFirst() ([]byte, []byte, bool, error) {
	k, v := s.cursor().First()
	return dup(k), dup(v), k != nil, nil
}

func (s *txnSeeker) SeekLast() ([]byte, []byte, bool, error) {
	k, v := s.cursor().Last()
	return dup(k), dup(v), k != nil, nil
}

func (s *txnSeeker) SeekGE(target []byte) ([]byte, []byte, bool, error) {
	k, v := s.cursor().Seek(target)
	return dup(k), dup(v), k != nil, nil
}

func (s *txnSeeker) SeekLE(target []byte) ([]byte, []byte, bool, error) {
	c := s.cursor()
	k, v := c.Seek(target)
	if k == nil {
		k, v = c.Last()
		return dup(k), dup(v), k != nil, nil
	}
	if bytes.Compare(k, target) > 0 {
		k, v = c.Prev()
	}
	return dup(k), dup(v), k != nil, nil
}

func (s *txnSeeker) Next(cur []byte) ([]byte, []byte, bool, error) {
	c := s.cursor()
	c.Seek(cur)
	k, v := c.Next()
	return dup(k), dup(v), k != nil, nil
}

func (s *txnSeeker) Prev(cur []byte) ([]byte, []byte, bool, error) {
	c := s.cursor()
	c.Seek(cur)
	k, v := c.Prev()
	return dup(k), dup(v), k != nil, nil
}

func (s *txnSeeker) Put(key, value []byte) error { return s.t.Put(key, value) }
func (s *txnSeeker) Delete(key []byte) error     { return s.t.Delete(key) }
