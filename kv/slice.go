package kv

import "bytes"

// NormalizeRange canonicalizes a caller-supplied (start, stop, reverse)
// triple into the (lo, hi, reverse) shape Backend.Range expects, following
// the Slice Normalizer rules:
//
//  1. If exactly one endpoint is present and reverse was requested, the
//     endpoints are swapped so lo is always the smaller (nil) bound and hi
//     the supplied one — a reverse-open-ended scan still walks from hi
//     down to the beginning of the store.
//  2. If both endpoints are present and start > stop, orientation is
//     inferred as reverse regardless of the caller's reverse flag.
//  3. If both endpoints are present, start <= stop, and reverse was
//     requested, the endpoints stand (both inclusive) and the scan simply
//     walks hi down to lo.
//  4. If both endpoints are absent, the entire store is scanned in the
//     requested direction.
//
// NormalizeRange never fails: any (start, stop, reverse) combination has a
// well-defined canonical form. Callers that build a range directly, rather
// than normalizing a caller-supplied tuple, and want inverted bounds
// rejected instead of silently reoriented should use CheckRange.
func NormalizeRange(start, stop []byte, reverse bool) (lo, hi []byte, rev bool, err error) {
	switch {
	case start == nil && stop == nil:
		return nil, nil, reverse, nil

	case start == nil: // only stop given
		if reverse {
			return nil, stop, true, nil
		}
		return nil, stop, false, nil

	case stop == nil: // only start given
		if reverse {
			return nil, start, true, nil
		}
		return start, nil, false, nil

	default: // both given
		cmp := bytes.Compare(start, stop)
		switch {
		case cmp == 0:
			return start, stop, reverse, nil
		case cmp < 0:
			// start < stop: a normal ascending range. Honor the
			// caller's orientation either way.
			return start, stop, reverse, nil
		default:
			// start > stop: orientation is inferred as reverse,
			// per rule 2, regardless of what reverse was set to.
			return stop, start, true, nil
		}
	}
}

// CheckRange validates that lo <= hi (or lo, hi are absent), returning
// ErrRangeInvalid otherwise. The secondary index's relational-operator
// range tables use this explicit check rather than NormalizeRange's
// automatic reorientation, since an inverted range there indicates a bug
// in the operator table rather than a caller request to scan backward.
func CheckRange(lo, hi []byte) error {
	if lo == nil || hi == nil {
		return nil
	}
	if bytes.Compare(lo, hi) > 0 {
		return ErrRangeInvalid
	}
	return nil
}
