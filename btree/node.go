package btree

import (
	"slices"
	"sort"
)

const degree = 4 // min: 2
const maxItems = 2*degree - 1

type item struct {
	key, val string
}

// node holds between degree-1 and maxItems items, except the root. Inner
// nodes have one child more than items; children[i] holds the keys below
// items[i].
type node struct {
	items    []item
	children []*node
}

func (n *node) leaf() bool { return n.children == nil }

func (n *node) full() bool { return len(n.items) == maxItems }

// find returns the index of key, or of the first item above it.
func (n *node) find(key string) (int, bool) {
	i := sort.Search(len(n.items), func(i int) bool {
		return n.items[i].key >= key
	})
	return i, i < len(n.items) && n.items[i].key == key
}

// split moves the upper half of a full node to a new right sibling and
// returns the middle item.
func (n *node) split() (item, *node) {
	mid := n.items[degree-1]
	right := &node{items: slices.Clone(n.items[degree:])}
	clear(n.items[degree-1:])
	n.items = n.items[:degree-1]
	if !n.leaf() {
		right.children = slices.Clone(n.children[degree:])
		clear(n.children[degree:])
		n.children = n.children[:degree]
	}
	return mid, right
}

// set stores val under key below n, splitting full children on the way
// down so that an insert never has to climb back.
func (n *node) set(key, val string) (old string, found bool) {
	for {
		i, ok := n.find(key)
		if ok {
			old, n.items[i].val = n.items[i].val, val
			return old, true
		}
		if n.leaf() {
			n.items = slices.Insert(n.items, i, item{key, val})
			return "", false
		}
		child := n.children[i]
		if child.full() {
			mid, right := child.split()
			n.items = slices.Insert(n.items, i, mid)
			n.children = slices.Insert(n.children, i+1, right)
			switch {
			case key == mid.key:
				old, n.items[i].val = n.items[i].val, val
				return old, true
			case key > mid.key:
				child = right
			}
		}
		n = child
	}
}

func (n *node) each(yield func(key, val []byte) bool) bool {
	for i, it := range n.items {
		if !n.leaf() && !n.children[i].each(yield) {
			return false
		}
		if !yield(s2b(it.key), s2b(it.val)) {
			return false
		}
	}
	if !n.leaf() {
		return n.children[len(n.items)].each(yield)
	}
	return true
}
