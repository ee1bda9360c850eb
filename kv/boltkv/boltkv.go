// Package boltkv implements kv.Backend over go.etcd.io/bbolt, a
// persistent, crash-safe, single-writer B+tree. Unlike kv/memkv it gives
// real durability. Like kv/memkv it does not nest transactions: bbolt itself
// is non-nesting, so Transaction() on an already-open Txn returns the same
// Txn rather than attempting to open a second write transaction against
// the same file, which bbolt would otherwise deadlock on.
package boltkv

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"kvtoolkit/kv"
)

var bucketName = []byte("kvtoolkit")

// Store is a persistent kv.Backend backed by a single bbolt bucket.
type Store struct {
	db  *bbolt.DB
	log *zap.SugaredLogger
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger injects a logger; the default is a no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens (creating if absent) a bbolt database file at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltkv: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltkv: create bucket: %w", err)
	}
	s := &Store{db: db, log: zap.NewNop().Sugar()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ kv.Backend = (*Store)(nil)

func (s *Store) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v == nil {
			return kv.ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (s *Store) Put(key, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

func (s *Store) Delete(key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

func (s *Store) Contains(key []byte) (bool, error) {
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketName).Get(key) != nil
		return nil
	})
	return found, err
}

func (s *Store) Len() (uint64, error) {
	var n uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = uint64(tx.Bucket(bucketName).Stats().KeyN)
		return nil
	})
	return n, err
}

func (s *Store) BulkGet(keys [][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, k := range keys {
			if v := b.Get(k); v != nil {
				out[string(k)] = append([]byte(nil), v...)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) BulkPut(kvs map[string][]byte) (int, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for k, v := range kvs {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(kvs), nil
}

func (s *Store) BulkDelete(keys [][]byte) (int, error) {
	n := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, k := range keys {
			if b.Get(k) != nil {
				n++
			}
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return n, err
}

func (s *Store) Range(start, stop []byte, reverse bool) (kv.Iterator, error) {
	var pairs []kv.Pair
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		collect := func(k, v []byte) {
			pairs = append(pairs, kv.Pair{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
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
			return nil
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
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sliceIterator{pairs: pairs, pos: -1}, nil
}

func (s *Store) PrefixMatch(prefix []byte, limit int) ([][]byte, error) {
	var keys [][]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
			if limit > 0 && len(keys) >= limit {
				break
			}
		}
		return nil
	})
	return keys, err
}

func (s *Store) Increment(key []byte, delta, initial int64) (int64, error) {
	var result int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		cur := initial + delta
		if v := b.Get(key); v != nil {
			n, derr := decodeInt64(v)
			if derr != nil {
				return derr
			}
			cur = n + delta
		}
		result = cur
		return b.Put(key, encodeInt64(cur))
	})
	return result, err
}

// Transaction opens a real bbolt write transaction. Since bbolt holds a
// single process-wide writer lock, only one Store.Transaction may be open
// at a time; callers that need concurrent readers during a write should
// use Get/Range, which use bbolt's separate (and concurrent) read-only
// transactions.
func (s *Store) Transaction() (kv.Txn, error) {
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("boltkv: begin transaction: %w", err)
	}
	return &txn{tx: tx, bucket: tx.Bucket(bucketName)}, nil
}

// Cursor returns a stateful scan over a point-in-time snapshot of the
// store. Unlike Range, which is already a one-shot forward-only sequence,
// a long-lived Cursor cannot hold a bbolt read transaction open for its
// entire lifetime without risking starving the writer's page reclamation,
// so the snapshot is materialized eagerly at Cursor-open time instead.
func (s *Store) Cursor(reverse bool) (*kv.Cursor, error) {
	sk, err := newSnapshotSeeker(s.db)
	if err != nil {
		return nil, err
	}
	return kv.NewCursor(sk, reverse), nil
}

func (s *Store) Capabilities() kv.Capabilities {
	return kv.Capabilities{Transactions: true, Regex: false, OrderedLen: false}
}

type sliceIterator struct {
	pairs []kv.Pair
	pos   int
}

func (it *sliceIterator) Next() bool { it.pos++; return it.pos < len(it.pairs) }
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

// snapshotSeeker implements kv.Seeker over a slice of key/value pairs
// read once from the store, giving a Cursor consistent point-in-time
// semantics without holding a bbolt transaction open for the Cursor's
// entire lifetime. Mutations (Put, Delete) fall through to the live
// store directly and are not reflected in the snapshot already in hand,
// matching a standard "snapshot read, live write" cursor contract.
type snapshotSeeker struct {
	db    *bbolt.DB
	pairs []kv.Pair
}

func newSnapshotSeeker(db *bbolt.DB) (*snapshotSeeker, error) {
	var pairs []kv.Pair
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			pairs = append(pairs, kv.Pair{Key: dup(k), Value: dup(v)})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltkv: snapshot store: %w", err)
	}
	return &snapshotSeeker{db: db, pairs: pairs}, nil
}

func (s *snapshotSeeker) find(target []byte, ge bool) (int, bool) {
	lo, hi := 0, len(s.pairs)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(s.pairs[mid].Key, target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if ge {
		return lo, lo < len(s.pairs)
	}
	if lo < len(s.pairs) && bytes.Equal(s.pairs[lo].Key, target) {
		return lo, true
	}
	return lo - 1, lo-1 >= 0
}

func (s *snapshotSeeker) at(i int) ([]byte, []byte, bool, error) {
	if i < 0 || i >= len(s.pairs) {
		return nil, nil, false, nil
	}
	return s.pairs[i].Key, s.pairs[i].Value, true, nil
}

func (s *snapshotSeeker) SeekFirst() ([]byte, []byte, bool, error) { return s.at(0) }
func (s *snapshotSeeker) SeekLast() ([]byte, []byte, bool, error)  { return s.at(len(s.pairs) - 1) }

func (s *snapshotSeeker) SeekGE(target []byte) ([]byte, []byte, bool, error) {
	i, ok := s.find(target, true)
	if !ok {
		return nil, nil, false, nil
	}
	return s.at(i)
}

func (s *snapshotSeeker) SeekLE(target []byte) ([]byte, []byte, bool, error) {
	i, ok := s.find(target, false)
	if !ok {
		return nil, nil, false, nil
	}
	return s.at(i)
}

func (s *snapshotSeeker) Next(cur []byte) ([]byte, []byte, bool, error) {
	i, ok := s.find(cur, true)
	if !ok {
		return nil, nil, false, nil
	}
	if bytes.Equal(s.pairs[i].Key, cur) {
		return s.at(i + 1)
	}
	return s.at(i)
}

func (s *snapshotSeeker) Prev(cur []byte) ([]byte, []byte, bool, error) {
	i, ok := s.find(cur, false)
	if !ok {
		return nil, nil, false, nil
	}
	if ok && i < len(s.pairs) && bytes.Equal(s.pairs[i].Key, cur) {
		return s.at(i - 1)
	}
	return s.at(i)
}

func (s *snapshotSeeker) Put(key, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

func (s *snapshotSeeker) Delete(key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

func dup(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

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
		return 0, fmt.Errorf("boltkv: corrupt counter value of length %d", len(b))
	}
	var u uint64
	for i := 0; i < 8; i++ {
		u = u<<8 | uint64(b[i])
	}
	return int64(u ^ (1 << 63)), nil
}
