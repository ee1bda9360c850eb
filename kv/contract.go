package kv

// Pair is a single key/value observed during a range scan or bulk
// operation.
type Pair struct {
	Key   []byte
	Value []byte
}

// Capabilities describes which optional parts of the Backend contract a
// given engine actually implements. Layers above the kv package use this
// to degrade gracefully instead of failing at the call site; the query
// compiler in package model, for instance, never calls RegexMatch, so it
// never needs to consult Capabilities.Regex.
type Capabilities struct {
	// Transactions is true when Transaction returns a Txn with real
	// isolation and atomic commit, rather than one that degrades to
	// immediate per-call writes.
	Transactions bool

	// Regex is true when RegexMatch is implemented.
	Regex bool

	// OrderedLen is true when Len is O(1) rather than O(n).
	OrderedLen bool
}

// Iterator is a finite, forward-only lazy sequence of key/value pairs
// produced by Range. Callers must call Close when done,
// whether or not Next ever returned false on its own; ranging to
// exhaustion does not release backend resources on every implementation.
type Iterator interface {
	// Next advances the iterator and reports whether a pair is
	// available. It must be called before the first Key/Value access.
	Next() bool

	// Key returns the key at the iterator's current position. Valid
	// only after Next has returned true.
	Key() []byte

	// Value returns the value at the iterator's current position.
	// Valid only after Next has returned true.
	Value() []byte

	// Err returns the first error encountered during iteration, if
	// any. Callers should check Err after Next returns false.
	Err() error

	// Close releases backend resources held by the iterator. Safe to
	// call multiple times.
	Close() error
}

// RegexMatcher is an optional capability: backends that can evaluate a
// regular expression against their key space directly (rather than
// requiring the caller to filter a full scan) implement it.
type RegexMatcher interface {
	RegexMatch(pattern string, limit int) ([][]byte, error)
}

// Backend is the ordered key/value contract every storage engine must
// satisfy. Keys are unique; ordering is lexicographic by unsigned byte
// comparison. Range endpoints are inclusive when present.
type Backend interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Put stores value at key, creating or overwriting the entry.
	Put(key, value []byte) error

	// Delete removes key. It is not an error to delete an absent key.
	Delete(key []byte) error

	// Contains reports whether key is present.
	Contains(key []byte) (bool, error)

	// Len reports the number of keys in the store. Capabilities().OrderedLen
	// indicates whether this is O(1) or O(n) for a given backend.
	Len() (uint64, error)

	// BulkGet returns the subset of keys present, mapped to their
	// values. Missing keys are simply omitted from the result, not
	// reported as errors.
	BulkGet(keys [][]byte) (map[string][]byte, error)

	// BulkPut writes every entry in kvs and returns the number
	// written.
	BulkPut(kvs map[string][]byte) (int, error)

	// BulkDelete removes every key in keys and returns the number
	// that were actually present and removed.
	BulkDelete(keys [][]byte) (int, error)

	// Range returns a lazy sequence over [start, stop], both inclusive
	// when non-nil. A nil start means "from the beginning"; a nil stop
	// means "to the end." When reverse is true, pairs are delivered in
	// descending key order. Use NormalizeRange first to canonicalize
	// caller-supplied (start, stop, step) tuples into this shape.
	Range(start, stop []byte, reverse bool) (Iterator, error)

	// PrefixMatch returns up to limit keys beginning with prefix, in
	// ascending order. limit <= 0 means unbounded.
	PrefixMatch(prefix []byte, limit int) ([][]byte, error)

	// Increment atomically adds delta to the integer stored at key
	// (initializing it to initial if absent) and returns the new
	// value.
	Increment(key []byte, delta, initial int64) (int64, error)

	// Transaction begins a scoped, atomic unit of work. Use Finish to
	// commit or roll back based on the enclosing function's error
	// result.
	Transaction() (Txn, error)

	// Cursor returns a stateful, bidirectional scan positioned before
	// the first element (reverse=false) or after the last element
	// (reverse=true). The returned Cursor must be released with
	// Cursor.Release.
	Cursor(reverse bool) (*Cursor, error)

	// Capabilities reports which optional parts of this contract the
	// backend actually implements.
	Capabilities() Capabilities
}

// Txn is a Backend whose writes are only observed by other readers of the
// underlying store upon a successful Commit, and are discarded entirely
// on Rollback. A Txn embeds Backend so code written against Backend also
// works unmodified inside a transaction.
type Txn interface {
	Backend

	// Commit makes the transaction's writes durable and visible.
	// Calling any method on the Txn afterward returns ErrTxnClosed.
	Commit() error

	// Rollback discards the transaction's writes. Calling any method
	// on the Txn afterward returns ErrTxnClosed. Rollback after Commit
	// is a no-op.
	Rollback() error
}

// Finish commits txn if *errp is nil, or rolls it back otherwise. If
// Commit itself fails, Finish attempts a Rollback and sets *errp to the
// commit error, preserving the original failure rather than masking it
// with a rollback error. Intended for:
//
//	func doSomething(b kv.Backend) (err error) {
//	    txn, err := b.Transaction()
//	    if err != nil {
//	        return err
//	    }
//	    defer kv.Finish(txn, &err)
//	    ...
//	    return nil
//	}
func Finish(txn Txn, errp *error) {
	if *errp != nil {
		_ = txn.Rollback()
		return
	}
	if err := txn.Commit(); err != nil {
		*errp = err
		_ = txn.Rollback()
	}
}
