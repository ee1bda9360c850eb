package model

// Op is a relational operator recognized by Index.Query.
type Op string

// The six relational operators (equality among them) and the lexical
// prefix test, exactly as enumerated in the Secondary Index operator table.
const (
	OpEq         Op = "="
	OpLt         Op = "<"
	OpLte        Op = "<="
	OpGt         Op = ">"
	OpGte        Op = ">="
	OpNe         Op = "!="
	OpStartsWith Op = "startswith"
)

// Expr is the tagged variant compiled by the query compiler: a leaf Cmp
// comparing a field to a literal, or an internal And/Or node combining
// two sub-expressions.
type Expr interface {
	isExpr()
}

// Cmp compares Field to Value using Op, resolved at compile time to an
// Index(Field).Query(Value, Op) call.
type Cmp struct {
	Field string
	Op    Op
	Value any
}

func (Cmp) isExpr() {}

// And intersects the primary-key sets of Left and Right.
type And struct {
	Left, Right Expr
}

func (And) isExpr() {}

// Or unions the primary-key sets of Left and Right.
type Or struct {
	Left, Right Expr
}

func (Or) isExpr() {}

// FieldRef is a builder handle for constructing comparisons against a
// named field, used in place of operator overloading: field.Eq(v),
// field.Lt(v), and so on, each returning a tagged Expr.
type FieldRef struct {
	name string
}

// FieldName returns a builder handle for the named field. The field need
// not yet exist on any particular Spec; validity is checked when the
// expression is compiled against a Registry.
func FieldName(name string) FieldRef {
	return FieldRef{name: name}
}

func (f FieldRef) Eq(v any) Expr         { return Cmp{Field: f.name, Op: OpEq, Value: v} }
func (f FieldRef) Lt(v any) Expr         { return Cmp{Field: f.name, Op: OpLt, Value: v} }
func (f FieldRef) Lte(v any) Expr        { return Cmp{Field: f.name, Op: OpLte, Value: v} }
func (f FieldRef) Gt(v any) Expr         { return Cmp{Field: f.name, Op: OpGt, Value: v} }
func (f FieldRef) Gte(v any) Expr        { return Cmp{Field: f.name, Op: OpGte, Value: v} }
func (f FieldRef) Ne(v any) Expr         { return Cmp{Field: f.name, Op: OpNe, Value: v} }
func (f FieldRef) StartsWith(v any) Expr { return Cmp{Field: f.name, Op: OpStartsWith, Value: v} }

// All folds exprs together with And. It panics if given zero expressions;
// callers compose queries at a point where at least one leaf is known.
func All(exprs ...Expr) Expr {
	return fold(exprs, func(l, r Expr) Expr { return And{Left: l, Right: r} })
}

// Any folds exprs together with Or.
func Any(exprs ...Expr) Expr {
	return fold(exprs, func(l, r Expr) Expr { return Or{Left: l, Right: r} })
}

func fold(exprs []Expr, combine func(l, r Expr) Expr) Expr {
	if len(exprs) == 0 {
		panic("model: All/Any requires at least one expression")
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = combine(out, e)
	}
	return out
}
