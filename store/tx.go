package store

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/dacapoday/zigzag/codec"
	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/schema"
	"github.com/pkg/errors"
)

// Tx is a transaction over the object stores of a DB. A Tx and its cursors
// belong to one goroutine, except that cursors of an engine reporting
// ConcurrentReads may be stepped concurrently while no write is in progress.
type Tx struct {
	db      *DB
	txn     Txn
	buckets map[string]Bucket
	writes  uint64
	done    bool
}

// Writable reports whether tx accepts writes.
func (tx *Tx) Writable() bool {
	return tx.txn.Writable()
}

// DB returns the database tx belongs to.
func (tx *Tx) DB() *DB {
	return tx.db
}

// Commit commits a writable transaction and releases a read-only one.
func (tx *Tx) Commit() (err error) {
	if tx.done {
		return ErrClosed
	}
	tx.done = true
	if !tx.txn.Writable() {
		return tx.txn.Rollback()
	}
	if err = tx.txn.Commit(); err != nil {
		err = errors.Wrap(err, "store: commit")
	}
	return
}

// Rollback discards the transaction. It is a no-op after Commit.
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	return tx.txn.Rollback()
}

func (tx *Tx) bucket(name string) (b Bucket, err error) {
	if tx.done {
		err = ErrClosed
		return
	}
	if b = tx.buckets[name]; b != nil {
		return
	}
	if b, err = tx.txn.Bucket(name); err != nil {
		err = errors.Wrapf(err, "store: bucket %q", name)
		return
	}
	tx.buckets[name] = b
	return
}

func (tx *Tx) writable() error {
	switch {
	case tx.done:
		return ErrClosed
	case !tx.txn.Writable():
		return ErrReadOnly
	}
	return nil
}

func (tx *Tx) store(name string) (*schema.Store, error) {
	return tx.db.schema.Store(name)
}

// Put stores value in the named store under the key read from the store's
// key path, assigning the next sequence number when the store
// auto-increments and the key is absent. It returns the primary key.
func (tx *Tx) Put(store string, value any) (pk key.Key, err error) {
	return tx.put(store, value, nil)
}

// PutKey stores value under the explicit primary key pk. When the store has
// a key path, value must carry the same key or none, in which case pk is
// written into it.
func (tx *Tx) PutKey(store string, value any, pk key.Key) (key.Key, error) {
	if pk == nil {
		return nil, errors.Wrap(ErrArgument, "store: nil primary key")
	}
	return tx.put(store, value, pk)
}

func (tx *Tx) put(store string, value any, pk key.Key) (key.Key, error) {
	if err := tx.writable(); err != nil {
		return nil, err
	}
	st, err := tx.store(store)
	if err != nil {
		return nil, err
	}

	doc, err := document(value)
	if err != nil {
		return nil, err
	}

	if pk != nil {
		if pk, err = key.Normalize(pk); err != nil {
			return nil, err
		}
	}
	if len(st.KeyPath) > 0 {
		inline, ok := st.KeyPath.Extract(doc)
		switch {
		case ok && pk != nil && !key.Equal(inline, pk):
			return nil, errors.Wrapf(ErrArgument, "store %q: record key %v differs from %v", store, inline, pk)
		case ok:
			pk = inline
		}
	}
	if pk == nil && st.AutoIncrement {
		if pk, err = tx.nextSequence(st.Name); err != nil {
			return nil, err
		}
	}
	if pk == nil {
		return nil, errors.Wrapf(ErrArgument, "store %q: record has no key at %s", store, st.KeyPath)
	}
	if len(st.KeyPath) > 0 {
		if _, ok := st.KeyPath.Extract(doc); !ok && !st.KeyPath.Inject(doc, pk) {
			return nil, errors.Wrapf(ErrArgument, "store %q: cannot set key path %s", store, st.KeyPath)
		}
	}
	if st.AutoIncrement {
		if err = tx.raiseSequence(st.Name, pk); err != nil {
			return nil, err
		}
	}

	if err = tx.write(st, pk, doc); err != nil {
		return nil, err
	}
	return pk, nil
}

// document converts value to the generic form records are indexed in:
// map[string]any objects, []any arrays, float64 numbers.
func document(value any) (any, error) {
	raw, err := codec.Marshal(value)
	if err != nil {
		return nil, err
	}
	return codec.Unmarshal(raw)
}

func (tx *Tx) write(st *schema.Store, pk key.Key, doc any) error {
	sb, err := tx.bucket(storeBucket(st.Name))
	if err != nil {
		return err
	}
	pkb := key.Encode(pk)

	old, err := tx.load(sb, pkb)
	if err != nil {
		return err
	}

	type entry struct {
		bucket Bucket
		keys   []key.Key
		stale  []key.Key
	}
	entries := make([]entry, len(st.Indexes))
	for i, ix := range st.Indexes {
		ib, err := tx.bucket(indexBucket(st.Name, ix.Name))
		if err != nil {
			return err
		}
		entries[i] = entry{bucket: ib, keys: indexKeys(ix, doc)}
		if old != nil {
			entries[i].stale = indexKeys(ix, old)
		}
		if !ix.Unique {
			continue
		}
		for _, ik := range entries[i].keys {
			owner, err := firstPrimaryKey(ib, ik)
			if err != nil {
				return err
			}
			if owner != nil && !key.Equal(owner, pk) {
				return errors.Wrapf(ErrConstraint, "index %q of store %q: key %v already used by %v", ix.Name, st.Name, ik, owner)
			}
		}
	}

	raw, err := codec.Marshal(doc)
	if err != nil {
		return err
	}
	tx.writes++
	for _, e := range entries {
		for _, ik := range e.stale {
			if err = e.bucket.Delete(key.AppendEncode(key.Encode(ik), pk)); err != nil {
				return errors.Wrap(err, "store: delete index entry")
			}
		}
		for _, ik := range e.keys {
			if err = e.bucket.Put(key.AppendEncode(key.Encode(ik), pk), pkb); err != nil {
				return errors.Wrap(err, "store: put index entry")
			}
		}
	}
	if err = sb.Put(pkb, raw); err != nil {
		return errors.Wrap(err, "store: put record")
	}
	return nil
}

// indexKeys returns the keys doc is indexed under by ix.
func indexKeys(ix *schema.Index, doc any) []key.Key {
	k, ok := ix.KeyPath.Extract(doc)
	if !ok {
		return nil
	}
	elems, isArray := k.([]any)
	if !ix.MultiEntry || !isArray {
		return []key.Key{k}
	}
	keys := make([]key.Key, 0, len(elems))
next:
	for _, e := range elems {
		for _, seen := range keys {
			if key.Equal(seen, e) {
				continue next
			}
		}
		keys = append(keys, e)
	}
	return keys
}

// firstPrimaryKey returns the lowest primary key indexed under ik, or nil.
func firstPrimaryKey(ib Bucket, ik key.Key) (key.Key, error) {
	prefix := key.Encode(ik)
	iter := ib.Iter()
	if !iter.Seek(prefix) {
		return nil, errors.Wrap(iter.Error(), "store: seek index")
	}
	if !bytes.HasPrefix(iter.Key(), prefix) {
		return nil, nil
	}
	return key.Decode(iter.Val())
}

func (tx *Tx) load(b Bucket, pkb []byte) (any, error) {
	raw, err := b.Get(pkb)
	if err != nil {
		return nil, errors.Wrap(err, "store: get record")
	}
	if raw == nil {
		return nil, nil
	}
	return codec.Unmarshal(raw)
}

// Get returns the record stored under pk, or ErrNotFound.
func (tx *Tx) Get(store string, pk key.Key) (any, error) {
	if _, err := tx.store(store); err != nil {
		return nil, err
	}
	pk, err := key.Normalize(pk)
	if err != nil {
		return nil, err
	}
	sb, err := tx.bucket(storeBucket(store))
	if err != nil {
		return nil, err
	}
	v, err := tx.load(sb, key.Encode(pk))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.Wrapf(ErrNotFound, "store %q: key %v", store, pk)
	}
	return v, nil
}

// Delete removes the record stored under pk with its index entries.
// Deleting an absent key is not an error.
func (tx *Tx) Delete(store string, pk key.Key) error {
	if err := tx.writable(); err != nil {
		return err
	}
	st, err := tx.store(store)
	if err != nil {
		return err
	}
	if pk, err = key.Normalize(pk); err != nil {
		return err
	}
	sb, err := tx.bucket(storeBucket(store))
	if err != nil {
		return err
	}
	pkb := key.Encode(pk)
	old, err := tx.load(sb, pkb)
	if err != nil || old == nil {
		return err
	}

	tx.writes++
	for _, ix := range st.Indexes {
		ib, err := tx.bucket(indexBucket(st.Name, ix.Name))
		if err != nil {
			return err
		}
		for _, ik := range indexKeys(ix, old) {
			if err = ib.Delete(key.AppendEncode(key.Encode(ik), pk)); err != nil {
				return errors.Wrap(err, "store: delete index entry")
			}
		}
	}
	if err = sb.Delete(pkb); err != nil {
		return errors.Wrap(err, "store: delete record")
	}
	return nil
}

// ClearStore removes every record of the store and its index entries.
func (tx *Tx) ClearStore(store string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	st, err := tx.store(store)
	if err != nil {
		return err
	}
	names := []string{storeBucket(st.Name)}
	for _, ix := range st.Indexes {
		names = append(names, indexBucket(st.Name, ix.Name))
	}
	tx.writes++
	for _, name := range names {
		b, err := tx.bucket(name)
		if err != nil {
			return err
		}
		var keys [][]byte
		iter := b.Iter()
		for iter.SeekFirst(); iter.Valid(); iter.Next() {
			keys = append(keys, bytes.Clone(iter.Key()))
		}
		if err = iter.Error(); err != nil {
			return errors.Wrapf(err, "store: clear %q", name)
		}
		for _, k := range keys {
			if err = b.Delete(k); err != nil {
				return errors.Wrapf(err, "store: clear %q", name)
			}
		}
	}
	return nil
}

// Count returns the number of records of the store, or of entries of the
// index when index is not empty, inside rng.
func (tx *Tx) Count(store, index string, rng *key.Range) (n int, err error) {
	c, err := tx.Cursor(Scope{Store: store, Index: index, Range: rng, KeyOnly: true})
	if err != nil {
		return
	}
	defer c.Close()
	for err = c.Open(nil, nil, false); err == nil && !c.Done(); err = c.Advance(1) {
		n++
	}
	return
}

func sequenceKey(store string) []byte {
	return []byte("seq/" + store)
}

func (tx *Tx) sequence(store string) (uint64, Bucket, error) {
	mb, err := tx.bucket(metaBucket)
	if err != nil {
		return 0, nil, err
	}
	raw, err := mb.Get(sequenceKey(store))
	if err != nil {
		return 0, nil, errors.Wrap(err, "store: read sequence")
	}
	if len(raw) != 8 {
		return 0, mb, nil
	}
	return binary.BigEndian.Uint64(raw), mb, nil
}

func (tx *Tx) nextSequence(store string) (key.Key, error) {
	seq, _, err := tx.sequence(store)
	if err != nil {
		return nil, err
	}
	if seq >= 1<<53 {
		return nil, errors.Wrapf(ErrConstraint, "store %q: key generator exhausted", store)
	}
	return float64(seq + 1), nil
}

// raiseSequence makes the generator continue above a numeric primary key.
func (tx *Tx) raiseSequence(store string, pk key.Key) error {
	f, ok := pk.(float64)
	if !ok || f < 1 {
		return nil
	}
	seq, mb, err := tx.sequence(store)
	if err != nil {
		return err
	}
	next := uint64(math.Min(math.Floor(f), 1<<53))
	if next <= seq {
		return nil
	}
	if err = mb.Put(sequenceKey(store), binary.BigEndian.AppendUint64(nil, next)); err != nil {
		return errors.Wrap(err, "store: write sequence")
	}
	return nil
}
