package boltkv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvtoolkit/kv"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Put([]byte(k), []byte(k+"-value")))
	}
}

func TestGetPutDelete(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get([]byte("missing"))
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Put([]byte("k"), []byte("v1")))
	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Delete([]byte("k")))
	_, err = s.Get([]byte("k"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestRangeAscendingAndDescending(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s)

	it, err := s.Range([]byte("b"), []byte("d"), false)
	require.NoError(t, err)
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"b", "c", "d"}, keys)

	it, err = s.Range([]byte("b"), []byte("d"), true)
	require.NoError(t, err)
	keys = nil
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"d", "c", "b"}, keys)
}

func TestIncrement(t *testing.T) {
	s := openTestStore(t)
	n, err := s.Increment([]byte("counter"), 3, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = s.Increment([]byte("counter"), -1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCursorSnapshotSeekIntoGap(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("c"), []byte("3")))

	fwd, err := s.Cursor(false)
	require.NoError(t, err)
	defer fwd.Release()
	require.NoError(t, fwd.Seek([]byte("b")))
	k, _, err := fwd.Get()
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), k)

	rev, err := s.Cursor(true)
	require.NoError(t, err)
	defer rev.Release()
	require.NoError(t, rev.Seek([]byte("b")))
	k, _, err = rev.Get()
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), k)
}

func TestCursorForwardWalksWholeStore(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s)

	c, err := s.Cursor(false)
	require.NoError(t, err)
	defer c.Release()

	require.NoError(t, c.First())
	pairs, err := c.FetchCount(10)
	require.NoError(t, err)
	require.Len(t, pairs, 5)
	assert.Equal(t, "a", string(pairs[0].Key))
	assert.Equal(t, "e", string(pairs[4].Key))
}

func TestTransactionCommitIsDurable(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s)

	txn, err := s.Transaction()
	require.NoError(t, err)
	require.NoError(t, txn.Put([]byte("f"), []byte("f-value")))
	require.NoError(t, txn.Delete([]byte("a")))
	require.NoError(t, txn.Commit())

	v, err := s.Get([]byte("f"))
	require.NoError(t, err)
	assert.Equal(t, []byte("f-value"), v)

	ok, err := s.Contains([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionRollbackDiscardsWrites(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s)

	txn, err := s.Transaction()
	require.NoError(t, err)
	require.NoError(t, txn.Put([]byte("zzz"), []byte("nope")))
	require.NoError(t, txn.Rollback())

	_, err = s.Get([]byte("zzz"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestFinishHelperRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s)
	sentinel := assert.AnError

	run := func() (err error) {
		txn, err := s.Transaction()
		require.NoError(t, err)
		defer kv.Finish(txn, &err)
		if perr := txn.Put([]byte("zzz"), []byte("nope")); perr != nil {
			return perr
		}
		return sentinel
	}
	err := run()
	assert.ErrorIs(t, err, sentinel)

	_, err = s.Get([]byte("zzz"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
