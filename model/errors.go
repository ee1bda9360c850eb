package model

import "errors"

// ErrNoSuchField is returned when an expression or index lookup refers to
// a field name absent from the model's Spec.
var ErrNoSuchField = errors.New("model: no such field")

// ErrNotIndexed is returned when a query leaf compares a field that has
// no Index built for it.
var ErrNotIndexed = errors.New("model: field is not indexed")

// ErrNotFound is returned by Load and Get when no matching record exists.
var ErrNotFound = errors.New("model: record not found")

// ErrConsistency is returned when a record's stored representation is
// partially present: for serialize=false records, some but not all
// per-field keys exist, which should never happen after a committed
// transactional save.
var ErrConsistency = errors.New("model: record is partially present")

// ErrMalformedExpr is returned by the query compiler when an expression
// tree node is neither a Cmp, an And, nor an Or.
var ErrMalformedExpr = errors.New("model: malformed expression tree")
