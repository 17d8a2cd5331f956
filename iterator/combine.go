package iterator

// Combine overlays a pending-changes iterator on a base iterator and hides
// deleted entries.
//
// It embeds Merge, so keys present in both layers come from 'over'. An entry
// whose visible value is empty is a tombstone and is skipped, whichever layer
// it comes from: a tombstone in 'over' hides the key from 'base', and one left
// in 'base' by an earlier committed delete is skipped as well.
//
// Valid, Error, Key, Val, Over, Base and Cover come from Merge.
//
// Transactions use it to read their own writes: 'over' holds the
// transaction's pending puts and deletes, 'base' the committed buckets.
type Combine[Over Iterator, Base Iterator] struct {
	merge[Over, Base]
}

type merge[Over Iterator, Base Iterator] = Merge[Over, Base]

var _ Iterator = (*Combine[Iterator, Iterator])(nil)

func (iter *Combine[Over, Base]) deleted() bool {
	return len(iter.merge.Val()) == 0
}

// Next advances to the next live key.
func (iter *Combine[Over, Base]) Next() bool {
	for iter.merge.Next() {
		if !iter.deleted() {
			return true
		}
	}
	return false
}

// Prev moves to the previous live key.
func (iter *Combine[Over, Base]) Prev() bool {
	for iter.merge.Prev() {
		if !iter.deleted() {
			return true
		}
	}
	return false
}

// SeekFirst positions at the first live key.
func (iter *Combine[Over, Base]) SeekFirst() bool {
	if !iter.merge.SeekFirst() {
		return false
	}
	if iter.deleted() {
		return iter.Next()
	}
	return true
}

// SeekLast positions at the last live key.
func (iter *Combine[Over, Base]) SeekLast() bool {
	if !iter.merge.SeekLast() {
		return false
	}
	if iter.deleted() {
		return iter.Prev()
	}
	return true
}

// Seek positions the iterator at the first live key >= the given key.
func (iter *Combine[Over, Base]) Seek(key []byte) bool {
	if !iter.merge.Seek(key) {
		return false
	}
	if iter.deleted() {
		return iter.Next()
	}
	return true
}
