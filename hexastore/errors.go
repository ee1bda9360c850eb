package hexastore

import "errors"

// ErrEmptyPattern is returned by Query when none of s, p, o are bound;
// a pattern must pin down at least one position.
var ErrEmptyPattern = errors.New("hexastore: pattern has no bound terms")
