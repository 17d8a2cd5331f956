package btree

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// fill sets n shuffled keys and returns them sorted.
func fill(t *testing.T, tree *BTree, n int, seed int64) []string {
	t.Helper()
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%05d", i*2)
	}
	r := rand.New(rand.NewSource(seed))
	shuffled := slices.Clone(keys)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	for _, k := range shuffled {
		tree.Set([]byte(k), []byte("v"+k))
	}
	return keys
}

func TestOrder(t *testing.T) {
	for _, n := range []int{0, 1, maxItems, maxItems + 1, 500} {
		var tree BTree
		keys := fill(t, &tree, n, int64(n))
		require.Equal(t, n, tree.Len())

		got := []string{}
		for k, v := range tree.Items {
			require.Equal(t, "v"+string(k), string(v))
			got = append(got, string(k))
		}
		require.Equal(t, keys, got, "items n=%d", n)

		got = got[:0]
		it := tree.Iter()
		for ok := it.SeekFirst(); ok; ok = it.Next() {
			got = append(got, string(it.Key()))
		}
		require.Equal(t, keys, got, "next n=%d", n)
		require.False(t, it.Valid())

		got = got[:0]
		for ok := it.SeekLast(); ok; ok = it.Prev() {
			got = append(got, string(it.Key()))
		}
		slices.Reverse(got)
		require.Equal(t, keys, got, "prev n=%d", n)
	}
}

func TestSeek(t *testing.T) {
	var tree BTree
	keys := fill(t, &tree, 300, 7)
	it := tree.Iter()
	for i, k := range keys {
		require.True(t, it.Seek([]byte(k)))
		require.Equal(t, k, string(it.Key()))

		// odd keys fall between two stored ones
		between := fmt.Sprintf("k%05d", i*2-1)
		if i == 0 {
			between = "a"
		}
		require.True(t, it.Seek([]byte(between)))
		require.Equal(t, k, string(it.Key()))
		if i > 0 {
			require.True(t, it.Prev())
			require.Equal(t, keys[i-1], string(it.Key()))
			require.True(t, it.Next())
			require.Equal(t, k, string(it.Key()))
		}
	}
	require.False(t, it.Seek([]byte("z")))
	require.Nil(t, it.Key())
}

func TestDirectionChange(t *testing.T) {
	var tree BTree
	keys := fill(t, &tree, 200, 3)
	it := tree.Iter()
	require.True(t, it.SeekFirst())
	for i := 1; i < len(keys)-1; i++ {
		require.True(t, it.Next())
		require.True(t, it.Next())
		require.True(t, it.Prev())
		require.Equal(t, keys[i], string(it.Key()))
	}
}

func TestIterFollowsChanges(t *testing.T) {
	var tree BTree
	tree.Set([]byte("b"), []byte("2"))
	tree.Set([]byte("d"), []byte("4"))

	it := tree.Iter()
	require.True(t, it.Seek([]byte("b")))
	clone := it.Clone()

	// enough inserts to split the root under the iterator
	for i := 0; i < 50; i++ {
		tree.Set([]byte(fmt.Sprintf("c%02d", i)), []byte("x"))
	}
	require.Equal(t, "b", string(it.Key()))
	require.True(t, it.Next())
	require.Equal(t, "c00", string(it.Key()))
	require.Equal(t, "b", string(clone.Key()))

	tree.Delete([]byte("c00"))
	require.Equal(t, 51, tree.Live())
	require.Empty(t, it.Val())
	tree.Compact()
	require.Equal(t, "c01", string(it.Key()))
	require.Equal(t, 51, tree.Len())

	tree.Reset()
	require.False(t, it.Valid())
	require.True(t, tree.Empty())
}
