package store

import (
	"bytes"

	"github.com/dacapoday/zigzag/codec"
	"github.com/dacapoday/zigzag/iterator"
	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/schema"
	"github.com/pkg/errors"
)

// Cursor walks the records of a store, or the entries of an index, inside a
// key range. It is created unpositioned by Tx.Cursor; Open positions it.
//
// Every time the cursor lands on a position inside its range the scope's
// Filter decides whether the position is reported or the cursor moves on.
// The cursor re-synchronises with writes made through its transaction: a
// position whose record was removed is replaced by its successor.
type Cursor struct {
	tx      *Tx
	scope   Scope
	store   *schema.Store
	records Bucket
	iter    iterator.Iterator

	raw     []byte
	key, pk key.Key
	val     any
	version uint64

	opened, done, resting bool
	count                 int
}

// Cursor returns an unpositioned cursor over scope.
func (tx *Tx) Cursor(scope Scope) (c *Cursor, err error) {
	st, err := tx.store(scope.Store)
	if err != nil {
		return
	}
	name := storeBucket(st.Name)
	if scope.Index != "" {
		if _, err = st.Index(scope.Index); err != nil {
			return
		}
		name = indexBucket(st.Name, scope.Index)
	}
	b, err := tx.bucket(name)
	if err != nil {
		return
	}
	records, err := tx.bucket(storeBucket(st.Name))
	if err != nil {
		return
	}
	c = &Cursor{tx: tx, scope: scope, store: st, records: records, iter: b.Iter()}
	return
}

// Scope returns what the cursor walks.
func (c *Cursor) Scope() Scope { return c.scope }

// IsIndexCursor reports whether the cursor walks a secondary index.
func (c *Cursor) IsIndexCursor() bool { return c.scope.Index != "" }

// Done reports whether the cursor ran past its range.
func (c *Cursor) Done() bool { return c.done }

// Resting reports whether a filter stopped the cursor with Skip. Its
// position is kept so a later scan can resume from it.
func (c *Cursor) Resting() bool { return c.resting }

// Count returns how many moves the cursor made since Open.
func (c *Cursor) Count() int { return c.count }

// Key returns the effective key: the index key of an index cursor, the
// primary key otherwise. It is nil when the cursor is done.
func (c *Cursor) Key() key.Key { return c.key }

// PrimaryKey returns the primary key at the position, or nil.
func (c *Cursor) PrimaryKey() key.Key { return c.pk }

// IndexKey returns the index key at the position. It is nil for cursors
// over a store.
func (c *Cursor) IndexKey() key.Key {
	if !c.IsIndexCursor() {
		return nil
	}
	return c.key
}

// Value returns the record at the position. It is nil for key-only cursors.
func (c *Cursor) Value() any { return c.val }

// Open positions the cursor at the start of its range, or at iniKey and
// iniPK when iniKey is not nil. With exclusive set the resume position
// itself is passed over.
func (c *Cursor) Open(iniKey, iniPK key.Key, exclusive bool) (err error) {
	c.opened, c.done, c.resting = true, false, false
	c.count = 0
	if iniKey == nil {
		c.start()
		return c.settle()
	}

	if iniKey, err = key.Normalize(iniKey); err != nil {
		return
	}
	target := key.Encode(iniKey)
	if c.IsIndexCursor() && iniPK != nil {
		if iniPK, err = key.Normalize(iniPK); err != nil {
			return
		}
		target = key.AppendEncode(target, iniPK)
	}
	reversed, unique := c.scope.Direction.Reversed(), c.scope.Direction.Unique() && c.IsIndexCursor()

	switch {
	case exclusive && unique && !reversed:
		c.seekGE(key.Successor(key.Encode(iniKey)))
	case exclusive && unique:
		c.seekBefore(key.Encode(iniKey))
	case exclusive && !reversed:
		if c.seekGE(target) && bytes.Equal(c.iter.Key(), target) {
			c.iter.Next()
		}
	case exclusive:
		c.seekBefore(target)
	case !reversed:
		c.seekGE(target)
	case c.IsIndexCursor() && iniPK == nil:
		c.seekLE(key.Successor(target))
	default:
		c.seekLE(target)
	}
	return c.settle()
}

// Restart moves back to the start of the range. It is allowed on a done
// cursor.
func (c *Cursor) Restart() error {
	if err := c.ready(false); err != nil {
		return err
	}
	c.resting, c.done = false, false
	c.count++
	c.start()
	return c.settle()
}

// Advance moves n reported positions in the cursor direction.
func (c *Cursor) Advance(n int) error {
	if n < 1 {
		return errors.Wrapf(ErrArgument, "cursor: advance by %d", n)
	}
	if err := c.ready(true); err != nil {
		return err
	}
	for ; n > 0 && !c.done; n-- {
		c.count++
		c.step()
		if err := c.settle(); err != nil {
			return err
		}
		if c.resting {
			break
		}
	}
	return nil
}

// ContinueEffectiveKey moves to the first position whose effective key is
// at or after k in the cursor direction. The target may lie behind the
// current position.
func (c *Cursor) ContinueEffectiveKey(k key.Key) (err error) {
	if err = c.ready(true); err != nil {
		return
	}
	if k, err = key.Normalize(k); err != nil {
		return
	}
	c.count++
	c.seekKey(k)
	return c.settle()
}

// ContinuePrimaryKey moves to primary key pk under the current index key,
// or the next position past it in the cursor direction. A target behind the
// current position restarts the walk at the target. On a store cursor it is
// ContinueEffectiveKey.
func (c *Cursor) ContinuePrimaryKey(pk key.Key) (err error) {
	if err = c.ready(true); err != nil {
		return
	}
	if pk, err = key.Normalize(pk); err != nil {
		return
	}
	c.count++
	c.seekPrimary(pk)
	return c.settle()
}

// Update replaces the record at the position and maintains its indexes.
func (c *Cursor) Update(value any) error {
	if err := c.positioned(); err != nil {
		return err
	}
	if _, err := c.tx.PutKey(c.store.Name, value, c.pk); err != nil {
		return err
	}
	if !c.scope.KeyOnly {
		v, err := document(value)
		if err != nil {
			return err
		}
		c.val = v
	}
	return nil
}

// Clear deletes the record at the position. The cursor keeps its position;
// the next move continues from the record's successor.
func (c *Cursor) Clear() error {
	if err := c.positioned(); err != nil {
		return err
	}
	return c.tx.Delete(c.store.Name, c.pk)
}

// Close releases the cursor. Further moves fail with ErrInvalidOperation.
func (c *Cursor) Close() {
	c.opened, c.done = false, true
	c.key, c.pk, c.val, c.raw = nil, nil, nil, nil
}

func (c *Cursor) ready(move bool) error {
	switch {
	case !c.opened:
		return errors.Wrap(ErrInvalidOperation, "cursor: not open")
	case c.tx.done:
		return errors.Wrap(ErrInvalidOperation, "cursor: transaction finished")
	case move && c.done:
		return errors.Wrap(ErrInvalidOperation, "cursor: exhausted")
	}
	return nil
}

func (c *Cursor) positioned() error {
	if err := c.ready(true); err != nil {
		return err
	}
	if err := c.tx.writable(); err != nil {
		return err
	}
	if c.raw == nil {
		return errors.Wrap(ErrInvalidOperation, "cursor: not positioned")
	}
	return nil
}

// start positions the iterator at the first candidate of the range.
func (c *Cursor) start() {
	if c.scope.Direction.Reversed() {
		c.seekLE(c.scope.Range.UpperBytes())
		return
	}
	c.seekGE(c.scope.Range.LowerBytes())
}

// seekGE positions at the first key >= b, or the first key when b is nil.
func (c *Cursor) seekGE(b []byte) bool {
	if b == nil {
		return c.iter.SeekFirst()
	}
	return c.iter.Seek(b)
}

// seekLE positions at the last key <= b, or the last key when b is nil.
func (c *Cursor) seekLE(b []byte) bool {
	if b == nil {
		return c.iter.SeekLast()
	}
	if c.iter.Seek(b) {
		if bytes.Equal(c.iter.Key(), b) {
			return true
		}
		return c.iter.Prev()
	}
	if c.iter.Error() != nil {
		return false
	}
	return c.iter.SeekLast()
}

// seekBefore positions at the last key < b.
func (c *Cursor) seekBefore(b []byte) bool {
	if c.iter.Seek(b) {
		return c.iter.Prev()
	}
	if c.iter.Error() != nil {
		return false
	}
	return c.iter.SeekLast()
}

// step moves one entry, or one index key for unique directions, from the
// current position.
func (c *Cursor) step() {
	reversed := c.scope.Direction.Reversed()
	if c.scope.Direction.Unique() && c.IsIndexCursor() {
		if reversed {
			c.seekBefore(key.Encode(c.key))
		} else {
			c.seekGE(key.Successor(key.Encode(c.key)))
		}
		return
	}

	if c.version != c.tx.writes {
		// the iterator may be stale: find the position again
		if reversed {
			c.seekBefore(c.raw)
			return
		}
		if c.iter.Seek(c.raw) && bytes.Equal(c.iter.Key(), c.raw) {
			c.iter.Next()
		}
		return
	}

	if reversed {
		c.iter.Prev()
	} else {
		c.iter.Next()
	}
}

func (c *Cursor) seekKey(k key.Key) {
	if !c.scope.Direction.Reversed() {
		c.seekGE(key.Encode(k))
		return
	}
	if c.IsIndexCursor() {
		c.seekLE(key.Successor(key.Encode(k)))
		return
	}
	c.seekLE(key.Encode(k))
}

func (c *Cursor) seekPrimary(pk key.Key) {
	if !c.IsIndexCursor() {
		c.seekKey(pk)
		return
	}
	if c.key == nil {
		c.start()
		return
	}
	target := key.AppendEncode(key.Encode(c.key), pk)
	if c.scope.Direction.Reversed() {
		c.seekLE(target)
	} else {
		c.seekGE(target)
	}
}

// settle walks from the iterator position to the next position the cursor
// reports, applying the range and the filter.
func (c *Cursor) settle() error {
	reversed := c.scope.Direction.Reversed()
	for {
		if !c.iter.Valid() {
			if err := c.iter.Error(); err != nil {
				return errors.Wrapf(err, "cursor %s", c.name())
			}
			c.exhaust()
			return nil
		}

		raw := c.iter.Key()
		k, pk, err := c.decode(raw)
		if err != nil {
			return err
		}

		switch loc := c.scope.Range.Locate(k); {
		case loc > 0 && !reversed, loc < 0 && reversed:
			c.exhaust()
			return nil
		case loc < 0:
			c.seekGE(key.Successor(key.Encode(k)))
			continue
		case loc > 0:
			c.seekBefore(key.Encode(k))
			continue
		}

		if reversed && c.scope.Direction.Unique() && c.IsIndexCursor() {
			// report the first primary key of the group
			if !c.iter.Seek(key.Encode(k)) {
				return errors.Wrapf(ErrInternal, "cursor %s: index group %v vanished", c.name(), k)
			}
			raw = c.iter.Key()
			if _, pk, err = c.decode(raw); err != nil {
				return err
			}
		}

		var v any
		if !c.scope.KeyOnly {
			if v, err = c.record(pk); err != nil {
				return err
			}
		}

		act := Continue
		if c.scope.Filter != nil {
			act = c.scope.Filter(k, pk, v)
		}
		switch act.verb {
		case VerbContinue, VerbSkip:
			c.raw = bytes.Clone(raw)
			c.key, c.pk, c.val = k, pk, v
			c.version = c.tx.writes
			c.resting = act.verb == VerbSkip
			return nil
		case VerbAdvance:
			c.key = k
			if c.scope.Direction.Unique() && c.IsIndexCursor() {
				c.step()
				continue
			}
			if reversed {
				c.iter.Prev()
			} else {
				c.iter.Next()
			}
		case VerbSeek:
			sk, err := key.Normalize(act.key)
			if err != nil {
				return err
			}
			c.seekKey(sk)
		case VerbSeekPrimary:
			spk, err := key.Normalize(act.key)
			if err != nil {
				return err
			}
			c.key = k
			c.seekPrimary(spk)
		case VerbRestart:
			c.start()
		default:
			return errors.Wrapf(ErrInternal, "cursor %s: filter returned %v", c.name(), act)
		}
	}
}

func (c *Cursor) exhaust() {
	c.done = true
	c.key, c.pk, c.val, c.raw = nil, nil, nil, nil
}

func (c *Cursor) decode(raw []byte) (k, pk key.Key, err error) {
	if !c.IsIndexCursor() {
		if k, err = key.Decode(raw); err != nil {
			err = errors.Wrapf(err, "cursor %s: primary key", c.name())
		}
		return k, k, err
	}
	k, rest, err := key.DecodeOne(raw)
	if err != nil {
		err = errors.Wrapf(err, "cursor %s: index key", c.name())
		return
	}
	if pk, err = key.Decode(rest); err != nil {
		err = errors.Wrapf(err, "cursor %s: primary key", c.name())
	}
	return
}

func (c *Cursor) record(pk key.Key) (any, error) {
	var raw []byte
	if c.IsIndexCursor() {
		var err error
		if raw, err = c.records.Get(key.Encode(pk)); err != nil {
			return nil, errors.Wrapf(err, "cursor %s: get %v", c.name(), pk)
		}
		if raw == nil {
			return nil, errors.Wrapf(ErrInternal, "cursor %s: index entry without record %v", c.name(), pk)
		}
	} else {
		raw = c.iter.Val()
	}
	v, err := codec.Unmarshal(raw)
	if err != nil {
		return nil, errors.WithMessagef(err, "cursor %s: record %v", c.name(), pk)
	}
	return v, nil
}

func (c *Cursor) name() string {
	if c.scope.Index == "" {
		return c.scope.Store
	}
	return c.scope.Store + "." + c.scope.Index
}
