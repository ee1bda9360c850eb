package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtoolkit/codec"
	"kvtoolkit/kv/memkv"
)

func personSpec() Spec {
	return NewSpec("person", true,
		NewField("first", codec.String, Indexed()),
		NewField("last", codec.String, Indexed()),
		NewField("dob", codec.Date, Indexed()),
	)
}

// Scenario 1: Model CRUD with index.
func TestPersonCRUDWithIndex(t *testing.T) {
	backend := memkv.New()
	reg := NewRegistry(personSpec(), backend)

	p1 := reg.Create(map[string]any{"first": "grant", "last": "leifer"})
	require.NoError(t, reg.Save(p1, true))
	p2 := reg.Create(map[string]any{"first": "wanda", "last": "leifer"})
	require.NoError(t, reg.Save(p2, true))
	p3 := reg.Create(map[string]any{"first": "huey", "last": "morris"})
	require.NoError(t, reg.Save(p3, true))

	results, err := reg.Query(FieldName("last").Eq("leifer"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, p1.ID(), results[0].ID())
	assert.Equal(t, p2.ID(), results[1].ID())
}

func TestLoadAndDelete(t *testing.T) {
	backend := memkv.New()
	reg := NewRegistry(personSpec(), backend)

	p := reg.Create(map[string]any{"first": "zaizee", "last": "morris"})
	require.NoError(t, reg.Save(p, true))

	loaded, err := reg.Load(p.ID())
	require.NoError(t, err)
	assert.Equal(t, "zaizee", loaded.Get("first"))

	require.NoError(t, reg.Delete(p))
	_, err = reg.Load(p.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	results, err := reg.Query(FieldName("last").Eq("morris"))
	require.NoError(t, err)
	assert.Len(t, results, 0)
}

func longSpec() Spec {
	return NewSpec("num", true, NewField("x", codec.Long, Indexed()))
}

// Scenario 2: Range query on Long.
func TestRangeQueryOnLong(t *testing.T) {
	backend := memkv.New()
	reg := NewRegistry(longSpec(), backend)

	ids := make(map[int64]int64)
	for _, x := range []int64{1, 2, 3, 10, 11} {
		inst := reg.Create(map[string]any{"x": x})
		require.NoError(t, reg.Save(inst, true))
		ids[x] = inst.ID()
	}

	lt4, err := reg.Query(FieldName("x").Lt(int64(4)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{ids[1], ids[2], ids[3]}, idsOf(lt4))

	gte4, err := reg.Query(FieldName("x").Gte(int64(4)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{ids[10], ids[11]}, idsOf(gte4))

	neTwoAndThree, err := reg.Query(All(FieldName("x").Ne(int64(2)), FieldName("x").Ne(int64(3))))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{ids[1], ids[10], ids[11]}, idsOf(neTwoAndThree))
}

func lastSpec() Spec {
	return NewSpec("item", true, NewField("last", codec.String, Indexed()))
}

// Scenario 3: Prefix query on String.
func TestPrefixQueryOnString(t *testing.T) {
	backend := memkv.New()
	reg := NewRegistry(lastSpec(), backend)

	for _, v := range []string{"aaa", "aab", "abb", "bbb", "ba"} {
		inst := reg.Create(map[string]any{"last": v})
		require.NoError(t, reg.Save(inst, true))
	}

	aa, err := reg.Query(FieldName("last").StartsWith("aa"))
	require.NoError(t, err)
	assert.Len(t, aa, 2)

	b, err := reg.Query(FieldName("last").StartsWith("b"))
	require.NoError(t, err)
	assert.Len(t, b, 2)

	c, err := reg.Query(FieldName("last").StartsWith("c"))
	require.NoError(t, err)
	assert.Len(t, c, 0)
}

func TestSaveUpdatesIndexOnValueChange(t *testing.T) {
	backend := memkv.New()
	reg := NewRegistry(personSpec(), backend)

	p := reg.Create(map[string]any{"first": "huey", "last": "morris"})
	require.NoError(t, reg.Save(p, true))

	p.Set("last", "freeman")
	require.NoError(t, reg.Save(p, true))

	morris, err := reg.Query(FieldName("last").Eq("morris"))
	require.NoError(t, err)
	assert.Len(t, morris, 0)

	freeman, err := reg.Query(FieldName("last").Eq("freeman"))
	require.NoError(t, err)
	require.Len(t, freeman, 1)
	assert.Equal(t, p.ID(), freeman[0].ID())
}

func TestQueryUnknownFieldError(t *testing.T) {
	backend := memkv.New()
	reg := NewRegistry(personSpec(), backend)
	_, err := reg.Query(FieldName("nonexistent").Eq("x"))
	assert.ErrorIs(t, err, ErrNoSuchField)
}

func TestExtendOverridesFieldByName(t *testing.T) {
	base := NewSpec("base", true, NewField("name", codec.String))
	extended := Extend("derived", base, NewField("name", codec.String, Indexed()))

	f, ok := extended.Field("name")
	require.True(t, ok)
	assert.True(t, f.Indexed)
}

func idsOf(insts []*Instance) []int64 {
	out := make([]int64, len(insts))
	for i, inst := range insts {
		out[i] = inst.ID()
	}
	return out
}
