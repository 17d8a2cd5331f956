// Package iterator defines the raw ordered iterator storage backends expose
// over their buckets, and the merge iterators transactions build from them.
package iterator

// Iterator walks the entries of a bucket in byte order of their keys.
//
//	for ok := it.SeekFirst(); ok; ok = it.Next() {
//		use(it.Key(), it.Val())
//	}
//	if err := it.Error(); err != nil {
//		...
//	}
//
// Every positioning method reports whether the iterator rests on an entry.
// A false result with a nil Error means the walk ran off the bucket; the
// store cursors above treat any non-nil Error as fatal for the scan.
type Iterator interface {
	// Valid reports whether the iterator rests on an entry.
	Valid() bool

	// Error returns the failure that made the last move stop, if any.
	Error() error

	// Key returns the encoded key of the current entry, valid until the next
	// move. Undefined when not Valid.
	Key() []byte

	// Val returns the value of the current entry, valid until the next move.
	// Overlay layers use an empty value as tombstone.
	Val() []byte

	// Next moves to the following key.
	Next() bool

	// Prev moves to the preceding key.
	Prev() bool

	// SeekFirst moves to the smallest key.
	SeekFirst() bool

	// SeekLast moves to the largest key.
	SeekLast() bool

	// Seek moves to the smallest key >= key.
	Seek(key []byte) bool
}
