// Package solver holds the join algorithms a scan drives its cursors with.
//
// A Solver sees one synchronised round at a time: the effective key of every
// cursor (nil once exhausted) and its value, which is the primary key for key
// iterators and the record otherwise. It answers with one store.Action per
// cursor, or with an empty slice to stop the scan.
package solver

import (
	"github.com/pkg/errors"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/store"
)

// Solver is a join algorithm.
type Solver interface {
	// Begin is called once before the first round.
	Begin(iters []*query.Iterator) error
	// Solve returns the moves of the next round. Actions for exhausted
	// cursors are ignored except Restart.
	Solve(keys []key.Key, values []any) ([]store.Action, error)
	// Finish is called once after the last round.
	Finish() error
}

// Writer is implemented by solvers that modify records through the cursors.
// The scan then runs in a writable transaction and hands over the cursors
// before the first round.
type Writer interface {
	Writable() bool
	Attach(cursors []*store.Cursor)
}

// Sink receives the matches of a solver.
type Sink interface {
	Push(k key.Key) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(k key.Key) error

func (f SinkFunc) Push(k key.Key) error { return f(k) }

// Collector is a Sink appending to Keys.
type Collector struct {
	Keys []key.Key
}

func (c *Collector) Push(k key.Key) error {
	c.Keys = append(c.Keys, k)
	return nil
}

// Base carries what every solver shares: the sink, the match limit and the
// match count. Embed it and call Push on candidate matches.
type Base struct {
	sink     Sink
	limit    int
	count    int
	reversed bool
	iters    []*query.Iterator
}

// Init sets the sink and the limit. A limit of zero means no limit.
func (b *Base) Init(sink Sink, limit int) {
	b.sink, b.limit = sink, max(limit, 0)
}

// Begin checks the iterators walk the same direction and resets the count.
func (b *Base) Begin(iters []*query.Iterator) error {
	if len(iters) == 0 {
		return errors.Wrap(ErrArgument, "solver: no iterators")
	}
	for i, it := range iters {
		if it == nil {
			return errors.Wrapf(ErrArgument, "solver: iterator %d is nil", i)
		}
		if it.IsReversed() != iters[0].IsReversed() {
			return errors.Wrapf(ErrArgument, "solver: iterator %d (%s) and iterator 0 (%s) walk opposite directions", i, it, iters[0])
		}
	}
	b.iters = iters
	b.reversed = iters[0].IsReversed()
	b.count = 0
	return nil
}

// Finish does nothing.
func (b *Base) Finish() error { return nil }

// Count returns the matches pushed since Begin.
func (b *Base) Count() int { return b.count }

// Limit returns the match limit, zero when unlimited.
func (b *Base) Limit() int { return b.limit }

// Reversed reports whether the iterators walk descending.
func (b *Base) Reversed() bool { return b.reversed }

// Iterators returns the iterators passed to Begin.
func (b *Base) Iterators() []*query.Iterator { return b.iters }

// Push reports a match when matchKey is not nil or when all values are
// pairwise equal keys. The match pushed is matchKey, or values[0]. It returns
// adv, or nil once the limit is reached.
func (b *Base) Push(adv []store.Action, keys []key.Key, values []any, matchKey key.Key) ([]store.Action, error) {
	if matchKey == nil {
		for i := range values {
			if keys[i] == nil || !key.Equal(values[0], values[i]) {
				return adv, nil
			}
		}
		matchKey = values[0]
	}
	b.count++
	if b.sink != nil {
		if err := b.sink.Push(matchKey); err != nil {
			return nil, errors.WithMessage(err, "solver: sink")
		}
	}
	if b.limit > 0 && b.count >= b.limit {
		return nil, nil
	}
	return adv, nil
}

// compare orders keys along the walking direction.
func (b *Base) compare(x, y key.Key) int {
	if b.reversed {
		return key.Compare(y, x)
	}
	return key.Compare(x, y)
}

// requireKeys rejects iterators yielding records: the merge solvers compare
// primary keys.
func requireKeys(iters []*query.Iterator) error {
	for i, it := range iters {
		if !it.IsKeyIterator() {
			return errors.Wrapf(ErrArgument, "solver: iterator %d (%s) must yield keys", i, it)
		}
	}
	return nil
}

func actions(n int, a store.Action) []store.Action {
	adv := make([]store.Action, n)
	for i := range adv {
		adv[i] = a
	}
	return adv
}
