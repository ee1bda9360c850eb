package hexastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtoolkit/kv/memkv"
)

func strp(s string) *string { return &s }

func TestStoreAndQueryAllPermutations(t *testing.T) {
	st := New(memkv.New(), "facts")
	require.NoError(t, st.Store("charlie", "likes", "huey"))

	results, err := st.Query(strp("charlie"), strp("likes"), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Triple{S: "charlie", P: "likes", O: "huey"}, results[0])

	results, err = st.Query(strp("charlie"), nil, strp("huey"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = st.Query(nil, strp("likes"), strp("huey"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = st.Query(strp("charlie"), nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = st.Query(nil, strp("likes"), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = st.Query(nil, nil, strp("huey"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	exact, err := st.Query(strp("charlie"), strp("likes"), strp("huey"))
	require.NoError(t, err)
	require.Len(t, exact, 1)
}

func TestQueryEmptyPatternErrors(t *testing.T) {
	st := New(memkv.New(), "facts")
	_, err := st.Query(nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPattern)
}

func TestDeleteRemovesAllPermutations(t *testing.T) {
	st := New(memkv.New(), "facts")
	require.NoError(t, st.Store("a", "b", "c"))
	require.NoError(t, st.Delete("a", "b", "c"))

	results, err := st.Query(strp("a"), nil, nil)
	require.NoError(t, err)
	assert.Len(t, results, 0)
	results, err = st.Query(nil, strp("b"), nil)
	require.NoError(t, err)
	assert.Len(t, results, 0)
	results, err = st.Query(nil, nil, strp("c"))
	require.NoError(t, err)
	assert.Len(t, results, 0)
}

func TestStoreManyIsOneBulkOperation(t *testing.T) {
	st := New(memkv.New(), "facts")
	require.NoError(t, st.StoreMany([]Triple{
		{S: "charlie", P: "likes", O: "huey"},
		{S: "charlie", P: "likes", O: "mickey"},
		{S: "charlie", P: "likes", O: "zaizee"},
	}))

	results, err := st.Query(strp("charlie"), strp("likes"), nil)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

// Scenario 5: hexastore conjunctive search with variable binding.
func TestSearchConjunctiveWithVariableBinding(t *testing.T) {
	st := New(memkv.New(), "facts")
	require.NoError(t, st.StoreMany([]Triple{
		{S: "charlie", P: "likes", O: "huey"},
		{S: "charlie", P: "likes", O: "mickey"},
		{S: "charlie", P: "likes", O: "zaizee"},
		{S: "huey", P: "is", O: "cat"},
		{S: "mickey", P: "is", O: "dog"},
		{S: "zaizee", P: "is", O: "cat"},
	}))

	bindings, err := st.Search(
		Condition{S: Const("charlie"), P: Const("likes"), O: Var("X")},
		Condition{S: Var("X"), P: Const("is"), O: Const("cat")},
	)
	require.NoError(t, err)
	require.Contains(t, bindings, "X")
	assert.Equal(t, map[string]struct{}{"huey": {}, "zaizee": {}}, bindings["X"])
}

func TestSearchRepeatedVariableInOneCondition(t *testing.T) {
	st := New(memkv.New(), "facts")
	require.NoError(t, st.StoreMany([]Triple{
		{S: "huey", P: "friend", O: "huey"},
		{S: "huey", P: "friend", O: "mickey"},
		{S: "mickey", P: "friend", O: "mickey"},
	}))

	bindings, err := st.Search(Condition{S: Var("X"), P: Const("friend"), O: Var("X")})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"huey": {}, "mickey": {}}, bindings["X"])
}

func TestSearchEmptyWhenNoConditionsMatch(t *testing.T) {
	st := New(memkv.New(), "facts")
	require.NoError(t, st.Store("a", "b", "c"))

	bindings, err := st.Search(Condition{S: Const("nope"), P: Const("b"), O: Var("X")})
	require.NoError(t, err)
	assert.Empty(t, bindings["X"])
}

// Hexastore symmetry property (§8): every stored triple is found through
// every pattern-query shape that includes at least one of its terms.
func TestHexastoreSymmetryProperty(t *testing.T) {
	st := New(memkv.New(), "facts")
	triple := Triple{S: "charlie", P: "likes", O: "huey"}
	require.NoError(t, st.Store(triple.S, triple.P, triple.O))

	patterns := []struct {
		s, p, o *string
	}{
		{&triple.S, &triple.P, nil},
		{&triple.S, nil, &triple.O},
		{nil, &triple.P, &triple.O},
		{&triple.S, nil, nil},
		{nil, &triple.P, nil},
		{nil, nil, &triple.O},
	}
	for _, pat := range patterns {
		results, err := st.Query(pat.s, pat.p, pat.o)
		require.NoError(t, err)
		assert.Contains(t, results, triple)
	}
}

// Search conjunctivity property (§8): search(c1, ..., cn) equals folding
// intersection of each condition's own binding set.
func TestSearchConjunctivityProperty(t *testing.T) {
	st := New(memkv.New(), "facts")
	require.NoError(t, st.StoreMany([]Triple{
		{S: "a", P: "likes", O: "x"},
		{S: "a", P: "likes", O: "y"},
		{S: "b", P: "likes", O: "y"},
		{S: "x", P: "is", O: "cat"},
		{S: "y", P: "is", O: "cat"},
	}))

	combined, err := st.Search(
		Condition{S: Const("a"), P: Const("likes"), O: Var("X")},
		Condition{S: Var("X"), P: Const("is"), O: Const("cat")},
	)
	require.NoError(t, err)

	first, err := st.Search(Condition{S: Const("a"), P: Const("likes"), O: Var("X")})
	require.NoError(t, err)
	second, err := st.Search(Condition{S: Var("X"), P: Const("is"), O: Const("cat")})
	require.NoError(t, err)

	want := intersect(first["X"], second["X"])
	assert.Equal(t, want, combined["X"])
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}
