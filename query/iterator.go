// Package query describes what a scan walks. An Iterator is an immutable
// descriptor of one cursor: store, optional index, key range, direction and
// filter. A Position is the mutable state one scan session keeps for it.
package query

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/store"
)

// Iterator is immutable; derivations return copies.
type Iterator struct {
	store, index string
	rng          *key.Range
	dir          store.Direction
	keyOnly      bool
	filter       store.Filter
}

// NewKeyIterator walks the primary keys of a store.
func NewKeyIterator(storeName string, rng *key.Range) *Iterator {
	return &Iterator{store: storeName, rng: rng, keyOnly: true}
}

// NewValueIterator walks the records of a store.
func NewValueIterator(storeName string, rng *key.Range) *Iterator {
	return &Iterator{store: storeName, rng: rng}
}

// NewIndexIterator walks the index keys and primary keys of an index.
func NewIndexIterator(storeName, index string, rng *key.Range) *Iterator {
	return &Iterator{store: storeName, index: index, rng: rng, keyOnly: true}
}

// NewIndexValueIterator walks an index and loads the records.
func NewIndexValueIterator(storeName, index string, rng *key.Range) *Iterator {
	return &Iterator{store: storeName, index: index, rng: rng}
}

// Where returns a key-only iterator over index (the store itself when index
// is empty) restricted by op and value, see key.Where.
func Where(storeName, index, op string, value key.Key) (*Iterator, error) {
	if storeName == "" {
		return nil, errors.Wrap(ErrArgument, "query: empty store name")
	}
	rng, err := key.Where(op, value)
	if err != nil {
		return nil, err
	}
	if index == "" {
		return NewKeyIterator(storeName, rng), nil
	}
	return NewIndexIterator(storeName, index, rng), nil
}

// Reverse returns a copy walking the opposite direction.
func (it *Iterator) Reverse() *Iterator {
	c := *it
	c.dir = it.dir.Reverse()
	return &c
}

// Unique returns a copy visiting the first primary key of every distinct
// index key.
func (it *Iterator) Unique() *Iterator {
	c := *it
	if it.dir.Reversed() {
		c.dir = store.PrevUnique
	} else {
		c.dir = store.NextUnique
	}
	return &c
}

// WithDirection returns a copy walking in direction d.
func (it *Iterator) WithDirection(d store.Direction) *Iterator {
	c := *it
	c.dir = d
	return &c
}

// WithFilter returns a copy consulting f on every position.
func (it *Iterator) WithFilter(f store.Filter) *Iterator {
	c := *it
	c.filter = f
	return &c
}

func (it *Iterator) StoreName() string          { return it.store }
func (it *Iterator) IndexName() string          { return it.index }
func (it *Iterator) KeyRange() *key.Range       { return it.rng }
func (it *Iterator) Direction() store.Direction { return it.dir }
func (it *Iterator) IsReversed() bool           { return it.dir.Reversed() }
func (it *Iterator) IsUnique() bool             { return it.dir.Unique() }

// IsKeyIterator reports whether the iterator yields primary keys instead of
// records.
func (it *Iterator) IsKeyIterator() bool { return it.keyOnly }

// IsIndexIterator reports whether the iterator walks a secondary index.
func (it *Iterator) IsIndexIterator() bool { return it.index != "" }

// Scope returns the cursor scope of the iterator.
func (it *Iterator) Scope() store.Scope {
	return store.Scope{
		Store:     it.store,
		Index:     it.index,
		Range:     it.rng,
		Direction: it.dir,
		KeyOnly:   it.keyOnly,
		Filter:    it.filter,
	}
}

func (it *Iterator) String() string {
	name := it.store
	if it.index != "" {
		name += "." + it.index
	}
	return fmt.Sprintf("%s%s %s", name, it.rng, it.dir)
}
