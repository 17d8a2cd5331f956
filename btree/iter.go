package btree

// Iter returns an iterator that follows the BTree as it changes (it is not a
// snapshot). Call SeekFirst, SeekLast or Seek to position it before use.
func (tree *BTree) Iter() Iter {
	return &iter{tree: tree, version: tree.version}
}

// Iter is an iterator over BTree. Do not compare with nil or rely on pointer
// semantics.
type Iter = *iter

// frame is one level of the path from the root to the current item. Below
// the last frame, i is the child the path descends into; in the last frame
// it is the current item.
type frame struct {
	node *node
	i    int
}

type iter struct {
	tree    *BTree
	path    []frame
	key     string
	version uint64
	valid   bool
}

// Clone creates an independent copy of the iterator at its current position.
func (it Iter) Clone() Iter {
	c := *it
	c.path = append([]frame(nil), it.path...)
	return &c
}

// sync repositions the iterator on its key, or the key after it, when the
// tree changed since the last move.
func (it Iter) sync() {
	if it.version == it.tree.version {
		return
	}
	if it.valid {
		it.seek(it.key)
		return
	}
	it.version = it.tree.version
	it.path = it.path[:0]
}

// Valid returns true if positioned at a key-value pair.
func (it Iter) Valid() bool {
	it.sync()
	return it.valid
}

// Error exists for Iterator interface compatibility.
func (it Iter) Error() error {
	return nil
}

// Key returns the current key, or nil if invalid.
// Returned slice is valid only until the next method call.
func (it Iter) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return s2b(it.key)
}

// Val returns the current value, or nil if invalid. A tombstone has an empty
// value. Returned slice is valid only until the next method call.
func (it Iter) Val() []byte {
	if !it.Valid() {
		return nil
	}
	f := it.path[len(it.path)-1]
	return s2b(f.node.items[f.i].val)
}

// Next advances to the next key. Returns false if no more items.
func (it Iter) Next() bool {
	if !it.Valid() {
		return false
	}
	top := &it.path[len(it.path)-1]
	if !top.node.leaf() {
		top.i++
		return it.first(top.node.children[top.i])
	}
	top.i++
	return it.climbUp()
}

// Prev moves to the previous key. Returns false if no more items.
func (it Iter) Prev() bool {
	if !it.Valid() {
		return false
	}
	top := &it.path[len(it.path)-1]
	if !top.node.leaf() {
		return it.last(top.node.children[top.i])
	}
	top.i--
	return it.climbDown()
}

// SeekFirst positions the iterator at the first key. Returns false if the
// BTree is empty.
func (it Iter) SeekFirst() bool {
	it.reset()
	if it.tree.root == nil {
		return it.settle(false)
	}
	return it.first(it.tree.root)
}

// SeekLast positions the iterator at the last key. Returns false if the
// BTree is empty.
func (it Iter) SeekLast() bool {
	it.reset()
	if it.tree.root == nil {
		return it.settle(false)
	}
	return it.last(it.tree.root)
}

// Seek positions the iterator at the first key >= key.
// Returns false if no such key exists.
func (it Iter) Seek(key []byte) bool {
	return it.seek(b2s(key))
}

func (it Iter) seek(key string) bool {
	it.reset()
	n := it.tree.root
	for n != nil {
		i, found := n.find(key)
		it.path = append(it.path, frame{n, i})
		if found {
			return it.settle(true)
		}
		if n.leaf() {
			return it.climbUp()
		}
		n = n.children[i]
	}
	return it.settle(false)
}

func (it Iter) reset() {
	it.version = it.tree.version
	it.path = it.path[:0]
}

// first descends to the smallest key below n.
func (it Iter) first(n *node) bool {
	for {
		it.path = append(it.path, frame{n, 0})
		if n.leaf() {
			return it.settle(true)
		}
		n = n.children[0]
	}
}

// last descends to the largest key below n.
func (it Iter) last(n *node) bool {
	for !n.leaf() {
		it.path = append(it.path, frame{n, len(n.items)})
		n = n.children[len(n.items)]
	}
	it.path = append(it.path, frame{n, len(n.items) - 1})
	return it.settle(true)
}

// climbUp leaves exhausted levels after a forward step: the item after a
// subtree is the parent item the path descends through.
func (it Iter) climbUp() bool {
	for len(it.path) > 0 {
		top := it.path[len(it.path)-1]
		if top.i < len(top.node.items) {
			return it.settle(true)
		}
		it.path = it.path[:len(it.path)-1]
	}
	return it.settle(false)
}

// climbDown leaves exhausted levels after a backward step: the item before a
// subtree is the parent item left of the child the path descends into.
func (it Iter) climbDown() bool {
	for len(it.path) > 0 {
		top := &it.path[len(it.path)-1]
		if top.i >= 0 {
			return it.settle(true)
		}
		it.path = it.path[:len(it.path)-1]
		if len(it.path) > 0 {
			it.path[len(it.path)-1].i--
		}
	}
	return it.settle(false)
}

func (it Iter) settle(valid bool) bool {
	it.valid = valid
	if !valid {
		it.key = ""
		it.path = it.path[:0]
		return false
	}
	f := it.path[len(it.path)-1]
	it.key = f.node.items[f.i].key
	return true
}
