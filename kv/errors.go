package kv

import "errors"

// ErrNotFound is returned by Get and by Cursor.Get when the requested key
// is absent from the store.
var ErrNotFound = errors.New("kv: key not found")

// ErrRangeInvalid is returned by CheckRange when lo sorts after hi.
// NormalizeRange never returns it: it reorients inverted endpoints instead.
var ErrRangeInvalid = errors.New("kv: inconsistent slice range")

// ErrUnsupported reports that a Backend lacks an optional capability it
// does not advertise, e.g. RegexMatch on a Backend whose
// Capabilities().Regex is false. No backend in this module returns it.
var ErrUnsupported = errors.New("kv: operation not supported by this backend")

// ErrTxnClosed is returned by any Txn method invoked after Commit or
// Rollback has already been called.
var ErrTxnClosed = errors.New("kv: transaction already closed")

// ErrCursorExhausted is returned by Cursor.Get when the cursor has
// stepped past the last (or before the first, for reverse cursors) entry.
var ErrCursorExhausted = errors.New("kv: cursor exhausted")
