package store

import "github.com/dacapoday/zigzag/iterator"

// Engine is a byte-ordered key/value backend organised in named buckets.
type Engine interface {
	// Begin starts a transaction. Only one writable transaction is active
	// at a time; readers see the state committed before they began.
	Begin(writable bool) (Txn, error)

	// ConcurrentReads reports whether iterators of one transaction may be
	// stepped from several goroutines at once.
	ConcurrentReads() bool

	Close() error
}

// Txn is a backend transaction.
type Txn interface {
	// Bucket returns the named bucket. Writable transactions create missing
	// buckets; read-only transactions return an empty bucket.
	Bucket(name string) (Bucket, error)
	Writable() bool
	Commit() error
	Rollback() error
}

// Bucket is an ordered byte map. Slices returned by Get are valid until the
// next write in the transaction.
type Bucket interface {
	// Get returns nil, nil when k is absent.
	Get(k []byte) ([]byte, error)
	Put(k, v []byte) error
	Delete(k []byte) error
	// Iter returns a new unpositioned iterator over the bucket, reading the
	// transaction's own writes.
	Iter() iterator.Iterator
}
