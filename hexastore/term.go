// Package hexastore implements a six-permutation triple store on top of a
// kv.Backend: every stored (subject, predicate, object) fact is written
// under all six orderings of its three terms, so a pattern query with any
// subset of terms bound can always be served by a single ordered range
// scan rather than a full-store filter.
package hexastore

// Term is one position of a triple or pattern: either a bound string value
// or a Variable awaiting a binding from Search.
type Term interface {
	isTerm()
}

// Const is a bound, literal term value.
type Const string

func (Const) isTerm() {}

// Variable is a named placeholder whose consistent bindings across a
// sequence of conditions are computed by Search.
type Variable struct {
	Name string
}

func (Variable) isTerm() {}

// Var constructs a named Variable term.
func Var(name string) Variable {
	return Variable{Name: name}
}

func isVariable(t Term) (Variable, bool) {
	v, ok := t.(Variable)
	return v, ok
}
