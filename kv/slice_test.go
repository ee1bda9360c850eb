package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRangeNoEndpoints(t *testing.T) {
	lo, hi, rev, err := NormalizeRange(nil, nil, true)
	require.NoError(t, err)
	assert.Nil(t, lo)
	assert.Nil(t, hi)
	assert.True(t, rev)
}

func TestNormalizeRangeOnlyStop(t *testing.T) {
	lo, hi, rev, err := NormalizeRange(nil, []byte("m"), true)
	require.NoError(t, err)
	assert.Nil(t, lo)
	assert.Equal(t, []byte("m"), hi)
	assert.True(t, rev)
}

func TestNormalizeRangeOnlyStart(t *testing.T) {
	lo, hi, rev, err := NormalizeRange([]byte("m"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("m"), lo)
	assert.Nil(t, hi)
	assert.False(t, rev)
}

func TestNormalizeRangeAscending(t *testing.T) {
	lo, hi, rev, err := NormalizeRange([]byte("a"), []byte("z"), false)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), lo)
	assert.Equal(t, []byte("z"), hi)
	assert.False(t, rev)
}

func TestNormalizeRangeInvertedInfersReverse(t *testing.T) {
	lo, hi, rev, err := NormalizeRange([]byte("z"), []byte("a"), false)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), lo)
	assert.Equal(t, []byte("z"), hi)
	assert.True(t, rev, "inverted start>stop must be reoriented to reverse regardless of the requested flag")
}

func TestNormalizeRangeEqualEndpoints(t *testing.T) {
	lo, hi, rev, err := NormalizeRange([]byte("m"), []byte("m"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte("m"), lo)
	assert.Equal(t, []byte("m"), hi)
	assert.True(t, rev)
}

func TestCheckRangeValid(t *testing.T) {
	assert.NoError(t, CheckRange([]byte("a"), []byte("z")))
	assert.NoError(t, CheckRange([]byte("m"), []byte("m")))
	assert.NoError(t, CheckRange(nil, []byte("z")))
	assert.NoError(t, CheckRange([]byte("a"), nil))
}

func TestCheckRangeInverted(t *testing.T) {
	err := CheckRange([]byte("z"), []byte("a"))
	assert.ErrorIs(t, err, ErrRangeInvalid)
}
