package iterator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/zigzag/btree"
	"github.com/dacapoday/zigzag/iterator"
)

func layers(over, base map[string]string) (*btree.BTree, *btree.BTree) {
	var o, b btree.BTree
	for k, v := range over {
		o.Set([]byte(k), []byte(v))
	}
	for k, v := range base {
		b.Set([]byte(k), []byte(v))
	}
	return &o, &b
}

func collect(iter iterator.Iterator, reverse bool) (keys []string) {
	if reverse {
		for iter.SeekLast(); iter.Valid(); iter.Prev() {
			keys = append(keys, string(iter.Key())+"="+string(iter.Val()))
		}
		return
	}
	for iter.SeekFirst(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key())+"="+string(iter.Val()))
	}
	return
}

func TestCombineOverlay(t *testing.T) {
	over, base := layers(
		map[string]string{"b": "B2", "d": ""},
		map[string]string{"a": "A", "b": "B", "c": "C", "d": "D"},
	)
	var iter iterator.Combine[btree.Iter, btree.Iter]
	iter.Load(over.Iter(), base.Iter())

	require.Equal(t, []string{"a=A", "b=B2", "c=C"}, collect(&iter, false))
	require.Equal(t, []string{"c=C", "b=B2", "a=A"}, collect(&iter, true))
	require.NoError(t, iter.Error())
}

func TestCombineSkipsBaseTombstones(t *testing.T) {
	over, base := layers(
		map[string]string{"e": "E"},
		map[string]string{"a": "", "b": "B", "c": "", "d": ""},
	)
	var iter iterator.Combine[btree.Iter, btree.Iter]
	iter.Load(over.Iter(), base.Iter())

	require.Equal(t, []string{"b=B", "e=E"}, collect(&iter, false))

	require.True(t, iter.Seek([]byte("c")))
	require.Equal(t, "e", string(iter.Key()))

	require.True(t, iter.Seek([]byte("a")))
	require.Equal(t, "b", string(iter.Key()))

	require.False(t, iter.Seek([]byte("f")))
	require.False(t, iter.Valid())
}

func TestCombineAllDeleted(t *testing.T) {
	over, base := layers(
		map[string]string{"a": "", "b": ""},
		map[string]string{"a": "A", "b": "B"},
	)
	var iter iterator.Combine[btree.Iter, btree.Iter]
	iter.Load(over.Iter(), base.Iter())

	require.False(t, iter.SeekFirst())
	require.False(t, iter.SeekLast())
	require.Empty(t, collect(&iter, false))
}

func TestCombineFollowsWrites(t *testing.T) {
	over, base := layers(nil, map[string]string{"a": "A", "c": "C"})
	var iter iterator.Combine[btree.Iter, btree.Iter]
	iter.Load(over.Iter(), base.Iter())

	require.True(t, iter.SeekFirst())
	require.Equal(t, "a", string(iter.Key()))

	over.Set([]byte("b"), []byte("B"))
	require.True(t, iter.Seek([]byte("a\x00")))
	require.Equal(t, "b", string(iter.Key()))

	over.Delete([]byte("c"))
	require.False(t, iter.Next())
}

func TestMergeTurns(t *testing.T) {
	over, base := layers(
		map[string]string{"b": "B2", "d": "D", "f": "F"},
		map[string]string{"a": "A", "b": "B", "c": "C", "e": "E"},
	)
	var iter iterator.Merge[btree.Iter, btree.Iter]
	iter.Load(over.Iter(), base.Iter())

	want := []string{"a=A", "b=B2", "c=C", "d=D", "e=E", "f=F"}
	require.Equal(t, want, collect(&iter, false))

	at := func() string { return string(iter.Key()) + "=" + string(iter.Val()) }
	require.True(t, iter.SeekFirst())
	for i := 1; i < len(want)-1; i++ {
		require.True(t, iter.Next())
		require.True(t, iter.Next())
		require.True(t, iter.Prev())
		require.Equal(t, want[i], at())
		require.Equal(t, i%2 == 1, iter.Cover(), want[i])
	}

	require.True(t, iter.Seek([]byte("c")))
	require.True(t, iter.Prev())
	require.Equal(t, "b=B2", at())
	require.True(t, iter.Prev())
	require.Equal(t, "a=A", at())
	require.False(t, iter.Prev())
	require.NoError(t, iter.Error())
}
