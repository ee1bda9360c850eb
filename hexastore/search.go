package hexastore

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Condition is one triple pattern in a Search call; any position may be a
// Variable shared across conditions to constrain its binding.
type Condition struct {
	S, P, O Term
}

// Search evaluates a conjunction of conditions and returns, for every
// variable appearing in them, the set of string values consistent with
// all conditions simultaneously. Order of conditions affects cost, not
// the result.
func (st *Store) Search(conditions ...Condition) (map[string]map[string]struct{}, error) {
	in := newInterner()
	bindings := make(map[string]*roaring64.Bitmap)

	for _, cond := range conditions {
		terms := [3]Term{cond.S, cond.P, cond.O}

		var sPtr, pPtr, oPtr *string
		var sVal, pVal, oVal string
		if c, ok := terms[0].(Const); ok {
			sVal = string(c)
			sPtr = &sVal
		}
		if c, ok := terms[1].(Const); ok {
			pVal = string(c)
			pPtr = &pVal
		}
		if c, ok := terms[2].(Const); ok {
			oVal = string(c)
			oPtr = &oVal
		}

		triples, err := st.Query(sPtr, pPtr, oPtr)
		if err != nil {
			return nil, err
		}

		local := make(map[string]*roaring64.Bitmap)
		for _, t := range terms {
			if v, ok := isVariable(t); ok {
				local[v.Name] = roaring64.New()
			}
		}
		for _, tr := range triples {
			vals := [3]string{tr.S, tr.P, tr.O}
			if !satisfiesCondition(terms, vals, bindings, in) {
				continue
			}
			for i, t := range terms {
				v, ok := isVariable(t)
				if !ok {
					continue
				}
				bm, ok := local[v.Name]
				if !ok {
					bm = roaring64.New()
					local[v.Name] = bm
				}
				bm.Add(uint64(in.intern(vals[i])))
			}
		}

		for name, bm := range local {
			if existing, ok := bindings[name]; ok {
				existing.And(bm)
			} else {
				bindings[name] = bm
			}
		}
	}

	out := make(map[string]map[string]struct{}, len(bindings))
	for name, bm := range bindings {
		ids := bm.ToArray()
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[in.str(uint32(id))] = struct{}{}
		}
		out[name] = set
	}
	return out, nil
}

// satisfiesCondition checks a single candidate triple against a
// condition's own repeated-variable equality constraints and against
// values already bound by earlier conditions.
func satisfiesCondition(terms [3]Term, vals [3]string, bindings map[string]*roaring64.Bitmap, in *interner) bool {
	seen := make(map[string]string, 3)
	for i, t := range terms {
		v, ok := isVariable(t)
		if !ok {
			continue
		}
		if prior, ok := seen[v.Name]; ok {
			if prior != vals[i] {
				return false
			}
			continue
		}
		seen[v.Name] = vals[i]

		bm, bound := bindings[v.Name]
		if !bound {
			continue
		}
		id, known := in.lookupID(vals[i])
		if !known || !bm.Contains(uint64(id)) {
			return false
		}
	}
	return true
}
