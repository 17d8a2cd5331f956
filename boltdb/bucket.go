package boltdb

import (
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/dacapoday/zigzag/iterator"
)

type bucket struct {
	b *bolt.Bucket
}

func (b *bucket) Get(k []byte) ([]byte, error) {
	return b.b.Get(k), nil
}

func (b *bucket) Put(k, v []byte) error {
	if err := b.b.Put(k, v); err != nil {
		if errors.Is(err, bolt.ErrTxNotWritable) {
			return ErrReadOnly
		}
		return err
	}
	return nil
}

func (b *bucket) Delete(k []byte) error {
	if err := b.b.Delete(k); err != nil {
		if errors.Is(err, bolt.ErrTxNotWritable) {
			return ErrReadOnly
		}
		return err
	}
	return nil
}

func (b *bucket) Iter() iterator.Iterator {
	return &Iter{cursor: b.b.Cursor()}
}

// Iter adapts a bbolt cursor to iterator.Iterator.
type Iter struct {
	cursor   *bolt.Cursor
	key, val []byte
}

var _ iterator.Iterator = (*Iter)(nil)

func (it *Iter) set(k, v []byte) bool {
	it.key, it.val = k, v
	return k != nil
}

func (it *Iter) Valid() bool  { return it.key != nil }
func (it *Iter) Error() error { return nil }
func (it *Iter) Key() []byte  { return it.key }
func (it *Iter) Val() []byte  { return it.val }

func (it *Iter) Next() bool {
	if it.key == nil {
		return false
	}
	return it.set(it.cursor.Next())
}

func (it *Iter) Prev() bool {
	if it.key == nil {
		return false
	}
	return it.set(it.cursor.Prev())
}

func (it *Iter) SeekFirst() bool      { return it.set(it.cursor.First()) }
func (it *Iter) SeekLast() bool       { return it.set(it.cursor.Last()) }
func (it *Iter) Seek(key []byte) bool { return it.set(it.cursor.Seek(key)) }

type emptyBucket struct{}

func (emptyBucket) Get([]byte) ([]byte, error) { return nil, nil }
func (emptyBucket) Put(k, v []byte) error      { return ErrReadOnly }
func (emptyBucket) Delete(k []byte) error      { return ErrReadOnly }
func (emptyBucket) Iter() iterator.Iterator    { return emptyIter{} }

type emptyIter struct{}

func (emptyIter) Valid() bool      { return false }
func (emptyIter) Error() error     { return nil }
func (emptyIter) Key() []byte      { return nil }
func (emptyIter) Val() []byte      { return nil }
func (emptyIter) Next() bool       { return false }
func (emptyIter) Prev() bool       { return false }
func (emptyIter) SeekFirst() bool  { return false }
func (emptyIter) SeekLast() bool   { return false }
func (emptyIter) Seek([]byte) bool { return false }
