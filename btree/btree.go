// Package btree provides an in-memory B-tree of byte keys with tombstones and
// iterators that follow the tree as it changes.
//
// It is the bucket storage of the in-memory backend: one BTree per bucket for
// committed data and one per bucket for every writable transaction's pending
// changes.
package btree

import "unsafe"

// BTree keeps key-value pairs in lexicographic key order. The zero value is
// an empty tree ready to use. Not thread-safe.
//
// Keys are never removed by Set or Delete: Delete records a tombstone, an
// empty value, which readers treat as absent. Compact drops tombstones once
// no reader needs them.
//
// BTree keeps references to the key and value slices given to Set, not
// copies. Do not modify them afterwards.
//
//	var tree BTree
//	tree.Set([]byte("key"), []byte("value"))
//	val, found := tree.Get([]byte("key")) // "value", true
//	for key, val := range tree.Items {
//		fmt.Printf("%s = %s\n", key, val)
//	}
type BTree struct {
	root    *node
	version uint64
	keys    int
	dead    int
}

// Reset clears all data.
func (tree *BTree) Reset() {
	tree.root = nil
	tree.keys, tree.dead = 0, 0
	tree.version++
}

// Set updates the value for key, inserting the key when missing. An empty
// val is a tombstone.
func (tree *BTree) Set(key, val []byte) {
	tree.version++
	old, found := tree.set(b2s(key), b2s(val))
	switch {
	case !found:
		tree.keys++
		if len(val) == 0 {
			tree.dead++
		}
	case old == "" && len(val) != 0:
		tree.dead--
	case old != "" && len(val) == 0:
		tree.dead++
	}
}

// Get returns the value for key. found is true for tombstones too, with an
// empty val.
func (tree *BTree) Get(key []byte) (val []byte, found bool) {
	k := b2s(key)
	for n := tree.root; n != nil; {
		i, ok := n.find(k)
		if ok {
			return s2b(n.items[i].val), true
		}
		if n.leaf() {
			break
		}
		n = n.children[i]
	}
	return nil, false
}

// Delete records a tombstone for key. The key stays in the tree with an
// empty value until Compact.
func (tree *BTree) Delete(key []byte) {
	tree.Set(key, nil)
}

// Len returns the number of keys, tombstones included.
func (tree *BTree) Len() int {
	return tree.keys
}

// Live returns the number of keys holding a value.
func (tree *BTree) Live() int {
	return tree.keys - tree.dead
}

// Empty reports whether the tree holds no keys.
func (tree *BTree) Empty() bool {
	return tree.keys == 0
}

// Compact rebuilds the tree without tombstones.
// Iterators created before Compact resynchronise on their next call.
func (tree *BTree) Compact() {
	if tree.dead == 0 {
		return
	}
	var live BTree
	for key, val := range tree.Items {
		if len(val) != 0 {
			live.Set(key, val)
		}
	}
	live.version = tree.version + 1
	*tree = live
}

// Items implements iter.Seq2[[]byte, []byte], yielding every pair in key
// order, tombstones included. The slices are valid only within the yield call.
func (tree *BTree) Items(yield func(key, val []byte) bool) {
	if tree.root != nil {
		tree.root.each(yield)
	}
}

func (tree *BTree) set(key, val string) (old string, found bool) {
	if tree.root == nil {
		tree.root = &node{items: []item{{key, val}}}
		return "", false
	}
	if tree.root.full() {
		left := tree.root
		mid, right := left.split()
		tree.root = &node{items: []item{mid}, children: []*node{left, right}}
	}
	return tree.root.set(key, val)
}

func s2b(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func b2s(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
