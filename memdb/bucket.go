package memdb

import (
	"github.com/dacapoday/zigzag/btree"
	"github.com/dacapoday/zigzag/iterator"
	"github.com/pkg/errors"
)

type bucket struct {
	tx      *txn
	base    *btree.BTree
	pending *btree.BTree
}

var empty btree.BTree

func (b *bucket) Iter() iterator.Iterator {
	over := b.pending
	if over == nil {
		over = &empty
	}
	iter := new(iterator.Combine[btree.Iter, btree.Iter])
	iter.Load(over.Iter(), b.base.Iter())
	return iter
}

func (b *bucket) Get(k []byte) ([]byte, error) {
	if b.tx.done {
		return nil, ErrClosed
	}
	if b.pending != nil {
		if v, found := b.pending.Get(k); found {
			return live(v), nil
		}
	}
	v, _ := b.base.Get(k)
	return live(v), nil
}

func live(v []byte) []byte {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (b *bucket) Put(k, v []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	if len(v) == 0 {
		return errors.Wrap(ErrArgument, "memdb: empty value")
	}
	b.pending.Set(clone(k), clone(v))
	return nil
}

func (b *bucket) Delete(k []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	b.pending.Delete(clone(k))
	return nil
}

func (b *bucket) check() error {
	switch {
	case b.tx.done:
		return ErrClosed
	case !b.tx.writable:
		return ErrReadOnly
	}
	return nil
}

func clone(b []byte) []byte {
	return append(make([]byte, 0, len(b)), b...)
}
