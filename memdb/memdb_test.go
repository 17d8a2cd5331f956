package memdb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/zigzag/store"
)

func put(t *testing.T, db *DB, kvs ...string) {
	t.Helper()
	tx, err := db.Begin(true)
	require.NoError(t, err)
	b, err := tx.Bucket("b")
	require.NoError(t, err)
	for i := 0; i+1 < len(kvs); i += 2 {
		if kvs[i+1] == "" {
			require.NoError(t, b.Delete([]byte(kvs[i])))
			continue
		}
		require.NoError(t, b.Put([]byte(kvs[i]), []byte(kvs[i+1])))
	}
	require.NoError(t, tx.Commit())
}

func keys(b store.Bucket) (out []string) {
	iter := b.Iter()
	for iter.SeekFirst(); iter.Valid(); iter.Next() {
		out = append(out, string(iter.Key()))
	}
	return
}

// TestTxReadCommitted checks uncommitted changes are visible inside the
// writable transaction only.
func TestTxReadCommitted(t *testing.T) {
	db := New()
	defer db.Close()
	put(t, db, "a", "1", "b", "2", "c", "3")

	tx, err := db.Begin(true)
	require.NoError(t, err)
	b, err := tx.Bucket("b")
	require.NoError(t, err)
	require.NoError(t, b.Put([]byte("b"), []byte("modified")))
	require.NoError(t, b.Put([]byte("d"), []byte("new")))
	require.NoError(t, b.Delete([]byte("a")))

	val, err := b.Get([]byte("b"))
	require.NoError(t, err)
	if !bytes.Equal(val, []byte("modified")) {
		t.Errorf("tx.Get(b) = %q, want %q", val, "modified")
	}
	val, _ = b.Get([]byte("a"))
	require.Nil(t, val)
	require.Equal(t, []string{"b", "c", "d"}, keys(b))

	rtx, err := db.Begin(false)
	require.NoError(t, err)
	rb, err := rtx.Bucket("b")
	require.NoError(t, err)
	val, _ = rb.Get([]byte("b"))
	if !bytes.Equal(val, []byte("2")) {
		t.Errorf("reader Get(b) = %q, want %q (should not see uncommitted)", val, "2")
	}
	require.Equal(t, []string{"a", "b", "c"}, keys(rb))
	require.ErrorIs(t, rb.Put([]byte("x"), []byte("y")), ErrReadOnly)
	require.NoError(t, rtx.Rollback())

	require.NoError(t, tx.Commit())

	rtx, err = db.Begin(false)
	require.NoError(t, err)
	defer rtx.Rollback()
	rb, err = rtx.Bucket("b")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c", "d"}, keys(rb))
}

func TestRollback(t *testing.T) {
	db := New()
	defer db.Close()
	put(t, db, "a", "1")

	tx, err := db.Begin(true)
	require.NoError(t, err)
	b, _ := tx.Bucket("b")
	require.NoError(t, b.Put([]byte("z"), []byte("26")))
	require.NoError(t, tx.Rollback())
	require.ErrorIs(t, b.Put([]byte("y"), []byte("25")), ErrClosed)

	rtx, _ := db.Begin(false)
	defer rtx.Rollback()
	rb, _ := rtx.Bucket("b")
	require.Equal(t, []string{"a"}, keys(rb))
}

func TestCommitCompacts(t *testing.T) {
	db := New()
	defer db.Close()
	put(t, db, "a", "1", "b", "2", "c", "3", "d", "4")
	put(t, db, "a", "", "b", "", "c", "")

	stats := db.Stats()["b"]
	require.Equal(t, [2]int{1, 0}, stats)
}

func TestPutCopies(t *testing.T) {
	db := New()
	defer db.Close()

	tx, _ := db.Begin(true)
	b, _ := tx.Bucket("b")
	k, v := []byte("key"), []byte("val")
	require.NoError(t, b.Put(k, v))
	k[0], v[0] = 'x', 'x'
	got, _ := b.Get([]byte("key"))
	require.Equal(t, "val", string(got))
	require.ErrorIs(t, b.Put([]byte("e"), nil), ErrArgument)
	require.NoError(t, tx.Commit())
}

func TestClosed(t *testing.T) {
	db := New()
	require.NoError(t, db.Close())
	_, err := db.Begin(false)
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, db.Close())
}
