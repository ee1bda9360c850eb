package hexastore

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"kvtoolkit/kv"
)

// Triple is a stored or matched (subject, predicate, object) fact.
type Triple struct {
	S string `json:"s"`
	P string `json:"p"`
	O string `json:"o"`
}

// Store indexes triples across all six term permutations under one key
// prefix in a kv.Backend, so a pattern query with any subset of terms
// bound is served by a single ordered range scan.
type Store struct {
	backend kv.Backend
	prefix  string
	log     *zap.SugaredLogger
}

// Option configures a Store at construction.
type Option func(*Store)

// WithLogger injects a logger; the default is a no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = l }
}

// New builds a Store over backend, namespacing every key under prefix so
// multiple hexastores can share one backend.
func New(backend kv.Backend, prefix string, opts ...Option) *Store {
	s := &Store{backend: backend, prefix: prefix, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store writes (s, p, o) under all six permutation keys in one bulk_put,
// per the Hexastore persistence invariant that all six permutations of a
// stored triple always exist together.
func (st *Store) Store(s, p, o string) error {
	return st.StoreMany([]Triple{{S: s, P: p, O: o}})
}

// StoreMany writes every triple under all six permutation keys in a
// single bulk_put.
func (st *Store) StoreMany(triples []Triple) error {
	kvs := make(map[string][]byte, len(triples)*6)
	for _, t := range triples {
		body, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("hexastore: marshal triple: %w", err)
		}
		for _, perm := range allPermutations {
			v := perm.order(t.S, t.P, t.O)
			kvs[string(st.key(perm, v[0], v[1], v[2]))] = body
		}
	}
	n, err := st.backend.BulkPut(kvs)
	if err != nil {
		return err
	}
	st.log.Debugw("stored triples", "count", len(triples), "keys_written", n)
	return nil
}

// Delete removes all six permutation keys for (s, p, o).
func (st *Store) Delete(s, p, o string) error {
	keys := make([][]byte, 0, 6)
	for _, perm := range allPermutations {
		v := perm.order(s, p, o)
		keys = append(keys, st.key(perm, v[0], v[1], v[2]))
	}
	n, err := st.backend.BulkDelete(keys)
	if err != nil {
		return err
	}
	st.log.Debugw("deleted triple", "s", s, "p", p, "o", o, "keys_removed", n)
	return nil
}

// Query returns every stored triple matching the given pattern. A nil
// pointer means that position is unbound; at least one of s, p, o must be
// non-nil.
func (st *Store) Query(s, p, o *string) ([]Triple, error) {
	if s == nil && p == nil && o == nil {
		return nil, ErrEmptyPattern
	}

	if s != nil && p != nil && o != nil {
		body, err := st.backend.Get(st.key(permSPO, *s, *p, *o))
		if err != nil {
			if err == kv.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		var t Triple
		if err := json.Unmarshal(body, &t); err != nil {
			return nil, fmt.Errorf("hexastore: unmarshal triple: %w", err)
		}
		return []Triple{t}, nil
	}

	perm := selectPermutation(s != nil, p != nil, o != nil)
	bound := orderedBoundTerms(perm, s, p, o)

	prefix := st.scanPrefix(perm, bound...)
	hi := scanUpperBound(prefix)

	it, err := st.backend.Range(prefix, hi, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Triple
	for it.Next() {
		var t Triple
		if err := json.Unmarshal(it.Value(), &t); err != nil {
			return nil, fmt.Errorf("hexastore: unmarshal triple: %w", err)
		}
		out = append(out, t)
	}
	return out, it.Err()
}

// orderedBoundTerms returns the bound values among s, p, o in the order
// perm stores its three fields, stopping at the first unbound position.
// selectPermutation only ever picks a permutation whose leading fields are
// exactly the bound ones, so the stop point is always the true boundary.
func orderedBoundTerms(perm permutation, s, p, o *string) []string {
	values := perm.order(derefOr(s), derefOr(p), derefOr(o))
	bound := order(perm, s != nil, p != nil, o != nil)
	var out []string
	for i, b := range bound {
		if !b {
			break
		}
		out = append(out, values[i])
	}
	return out
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
