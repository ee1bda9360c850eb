package codec

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	b, err := String.Encode("hello")
	require.NoError(t, err)
	v, err := String.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestStringNullEncodesEmpty(t *testing.T) {
	b, err := String.Encode(nil)
	require.NoError(t, err)
	assert.Nil(t, b)
	v, err := String.Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLongRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		b, err := Long.Encode(n)
		require.NoError(t, err)
		v, err := Long.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, n, v)
	}
}

func TestLongRawEncodingNotMonotonicForNegatives(t *testing.T) {
	pos, err := Long.Encode(int64(1))
	require.NoError(t, err)
	neg, err := Long.Encode(int64(-1))
	require.NoError(t, err)
	assert.True(t, string(neg) > string(pos), "documented limitation: raw two's-complement big-endian is not monotonic across the sign boundary")
}

func TestOrderPreservingLongRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		b, err := OrderPreservingLong.Encode(n)
		require.NoError(t, err)
		v, err := OrderPreservingLong.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, n, v)
	}
}

func TestOrderPreservingLongIsMonotonic(t *testing.T) {
	values := []int64{-100, -50, -1, 0, 1, 50, 100}
	encoded := make([]string, len(values))
	for i, v := range values {
		b, err := OrderPreservingLong.Encode(v)
		require.NoError(t, err)
		encoded[i] = string(b)
	}
	assert.True(t, sort.StringsAreSorted(encoded))
}

func TestFloatRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1.5, -1.5, 3.14159, -3.14159} {
		b, err := Float.Encode(f)
		require.NoError(t, err)
		v, err := Float.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, f, v)
	}
}

func TestOrderPreservingFloatRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1.5, -1.5, 3.14159, -3.14159, 1e300, -1e300} {
		b, err := OrderPreservingFloat.Encode(f)
		require.NoError(t, err)
		v, err := OrderPreservingFloat.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, f, v)
	}
}

func TestOrderPreservingFloatIsMonotonic(t *testing.T) {
	values := []float64{-100.5, -50.1, -0.001, 0, 0.001, 50.1, 100.5}
	encoded := make([]string, len(values))
	for i, v := range values {
		b, err := OrderPreservingFloat.Encode(v)
		require.NoError(t, err)
		encoded[i] = string(b)
	}
	assert.True(t, sort.StringsAreSorted(encoded))
}

func TestDateRoundTrip(t *testing.T) {
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	b, err := Date.Encode(d)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", string(b))

	v, err := Date.Decode(b)
	require.NoError(t, err)
	assert.True(t, d.Equal(v.(time.Time)))
}

func TestDateTimeRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 15, 13, 45, 9, 123456000, time.UTC)
	b, err := DateTime.Encode(ts)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15 13:45:09.123456", string(b))

	v, err := DateTime.Decode(b)
	require.NoError(t, err)
	assert.True(t, ts.Equal(v.(time.Time)))
}

func TestDateTimeLexicalOrderMatchesChronologicalOrder(t *testing.T) {
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	be, err := DateTime.Encode(earlier)
	require.NoError(t, err)
	bl, err := DateTime.Encode(later)
	require.NoError(t, err)
	assert.True(t, string(be) < string(bl))
}
