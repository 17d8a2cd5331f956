package iterator

import "bytes"

// Merge merges two sorted iterators into a single sorted iterator.
//
// The 'over' iterator acts as an overlay, taking precedence when both
// iterators have the same key: a transaction's pending writes over the
// committed bucket.
//
// While moving forward both children rest at or after the current key, and
// while moving backward at or before it; a child only shares the current key
// when it is 'base' shadowed by 'over'. Changing direction re-seeks the child
// the current key does not come from.
type Merge[Over Iterator, Base Iterator] struct {
	over    Over
	base    Base
	err     error
	valid   bool
	cover   bool
	reverse bool
}

// Load initializes the merge iterator with the given iterators, unpositioned.
func (iter *Merge[Over, Base]) Load(over Over, base Base) {
	*iter = Merge[Over, Base]{over: over, base: base}
}

// Over returns the overlay iterator.
func (iter *Merge[Over, Base]) Over() Over {
	return iter.over
}

// Base returns the base iterator.
func (iter *Merge[Over, Base]) Base() Base {
	return iter.base
}

// Cover returns true if the current key-value pair comes from the overlay
// iterator, false if it comes from the base iterator.
func (iter *Merge[Over, Base]) Cover() bool {
	return iter.cover
}

var _ Iterator = (*Merge[Iterator, Iterator])(nil)

// Valid returns true if the iterator points to a valid key-value pair.
func (iter *Merge[Over, Base]) Valid() bool {
	return iter.valid
}

// Error returns the first error encountered from either child iterator, or nil.
func (iter *Merge[Over, Base]) Error() error {
	return iter.err
}

// Key returns the current key from the active child iterator.
func (iter *Merge[Over, Base]) Key() []byte {
	switch {
	case !iter.valid:
		return nil
	case iter.cover:
		return iter.over.Key()
	}
	return iter.base.Key()
}

// Val returns the current value from the active child iterator.
func (iter *Merge[Over, Base]) Val() []byte {
	switch {
	case !iter.valid:
		return nil
	case iter.cover:
		return iter.over.Val()
	}
	return iter.base.Val()
}

// Next advances to the next key in the merged sequence.
func (iter *Merge[Over, Base]) Next() bool {
	if !iter.valid {
		return false
	}
	if iter.reverse && !iter.turn(false) {
		return false
	}
	if iter.cover {
		if iter.shadowed() {
			iter.base.Next()
		}
		iter.over.Next()
	} else {
		iter.base.Next()
	}
	return iter.pick()
}

// Prev moves to the previous key in the merged sequence.
func (iter *Merge[Over, Base]) Prev() bool {
	if !iter.valid {
		return false
	}
	if !iter.reverse && !iter.turn(true) {
		return false
	}
	if iter.cover {
		if iter.shadowed() {
			iter.base.Prev()
		}
		iter.over.Prev()
	} else {
		iter.base.Prev()
	}
	return iter.pick()
}

// SeekFirst positions at the smallest key across both iterators.
func (iter *Merge[Over, Base]) SeekFirst() bool {
	iter.reverse = false
	iter.over.SeekFirst()
	iter.base.SeekFirst()
	return iter.pick()
}

// SeekLast positions at the largest key across both iterators.
func (iter *Merge[Over, Base]) SeekLast() bool {
	iter.reverse = true
	iter.over.SeekLast()
	iter.base.SeekLast()
	return iter.pick()
}

// Seek positions at the first key >= the given key across both iterators.
func (iter *Merge[Over, Base]) Seek(key []byte) bool {
	iter.reverse = false
	iter.over.Seek(key)
	iter.base.Seek(key)
	return iter.pick()
}

// shadowed reports whether base rests on the key 'over' reports.
func (iter *Merge[Over, Base]) shadowed() bool {
	return iter.base.Valid() && bytes.Equal(iter.base.Key(), iter.over.Key())
}

// turn re-seeks the child the current key does not come from so that it
// rests on the side of the current key the new direction walks to.
func (iter *Merge[Over, Base]) turn(reverse bool) bool {
	iter.reverse = reverse
	if iter.cover {
		return iter.resync(iter.base, iter.over.Key(), reverse, true)
	}
	return iter.resync(iter.over, iter.base.Key(), reverse, false)
}

func (iter *Merge[Over, Base]) resync(other Iterator, key []byte, reverse, shadow bool) bool {
	found := other.Seek(key)
	if !reverse {
		return iter.check(other)
	}
	switch {
	case found && shadow && bytes.Equal(other.Key(), key):
	case found:
		other.Prev()
	case other.Error() == nil:
		other.SeekLast()
	}
	return iter.check(other)
}

func (iter *Merge[Over, Base]) check(child Iterator) bool {
	if !child.Valid() && child.Error() != nil {
		iter.err, iter.valid = child.Error(), false
		return false
	}
	return true
}

// pick chooses the child holding the next key in the walking direction.
// 'over' wins ties.
func (iter *Merge[Over, Base]) pick() bool {
	if !iter.check(iter.over) || !iter.check(iter.base) {
		return false
	}
	iter.err = nil
	ov, bv := iter.over.Valid(), iter.base.Valid()
	switch {
	case ov && bv:
		c := bytes.Compare(iter.over.Key(), iter.base.Key())
		if iter.reverse {
			c = -c
		}
		iter.cover = c <= 0
	case ov:
		iter.cover = true
	case bv:
		iter.cover = false
	default:
		iter.valid = false
		return false
	}
	iter.valid = true
	return true
}
