// Package scan drives the cursors of a set of iterators in lockstep rounds
// under the control of a solver.
//
// Every round the driver gathers the effective key and value of each cursor,
// asks the solver for one action per cursor and applies them. A round never
// starts before every cursor of the previous one has settled. The scan ends
// when the solver returns no actions or no cursor has a key left.
package scan

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/logger"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/solver"
	"github.com/dacapoday/zigzag/store"
)

// Scan runs solver once over iters, starting every iterator at the start of
// its range.
func Scan(ctx context.Context, db *store.DB, iters []*query.Iterator, s solver.Solver, opts ...Option) error {
	session, err := NewSession(db, iters...)
	if err != nil {
		return err
	}
	return session.Scan(ctx, s, opts...)
}

// Session owns the positions of a fixed set of iterators across scans. A
// scan that stops early leaves the positions Resting and the next scan of
// the session resumes from them.
//
// Scans of one session are serialised.
type Session struct {
	mu        sync.Mutex
	db        *store.DB
	iters     []*query.Iterator
	positions []query.Position
	stats     Stats
}

// NewSession checks that every iterator names a store, and index, of the
// schema of db.
func NewSession(db *store.DB, iters ...*query.Iterator) (*Session, error) {
	if db == nil {
		return nil, errors.Wrap(ErrArgument, "scan: nil db")
	}
	if len(iters) == 0 {
		return nil, errors.Wrap(ErrArgument, "scan: no iterators")
	}
	for i, it := range iters {
		if it == nil {
			return nil, errors.Wrapf(ErrArgument, "scan: iterator %d is nil", i)
		}
		st, err := db.Schema().Store(it.StoreName())
		if err != nil {
			return nil, errors.WithMessagef(err, "scan: iterator %d", i)
		}
		if it.IsIndexIterator() {
			if _, err = st.Index(it.IndexName()); err != nil {
				return nil, errors.WithMessagef(err, "scan: iterator %d", i)
			}
		}
	}
	return &Session{
		db:        db,
		iters:     slices.Clone(iters),
		positions: make([]query.Position, len(iters)),
	}, nil
}

// Iterators returns the iterators of the session.
func (s *Session) Iterators() []*query.Iterator { return s.iters }

// Position returns the position of iterator i.
func (s *Session) Position(i int) *query.Position { return &s.positions[i] }

// Reset returns every position to Initial. Resetting twice is the same as
// resetting once.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.positions {
		s.positions[i].Reset()
	}
}

// Stats returns the totals over every scan of the session.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

type counter interface {
	Count() int
}

// Scan runs sv over the iterators of the session. On failure the positions
// are left as they were before the scan and the transaction is rolled back;
// matches already pushed to a sink stay there.
func (s *Session) Scan(ctx context.Context, sv solver.Solver, opts ...Option) (err error) {
	if sv == nil {
		return errors.Wrap(ErrArgument, "scan: nil solver")
	}
	o := options{log: s.db.Logger(), parallelism: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NopLogger
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := &run{session: s, solver: sv, opts: &o}
	if o.stats != nil {
		o.stats.ScanStarted(len(s.iters))
	}
	saved := slices.Clone(s.positions)
	err = r.run(ctx)
	if err != nil {
		copy(s.positions, saved)
		o.log.Debugf("scan: failed after %d rounds: %v", r.rounds, err)
	} else {
		o.log.Debugf("scan: finished after %d rounds, %d moves, %d matches", r.rounds, r.moves, r.matches())
	}
	s.stats.Scans++
	s.stats.Rounds += r.rounds
	s.stats.Moves += r.moves
	s.stats.Matches += r.matches()
	if o.stats != nil {
		o.stats.ScanDone(r.matches(), err)
	}
	return
}

// run is the state of one scan.
type run struct {
	session *Session
	solver  solver.Solver
	opts    *options
	tx      *store.Tx
	cursors []*store.Cursor
	rounds  int
	moves   int
}

func (r *run) matches() int {
	if c, ok := r.solver.(counter); ok {
		return c.Count()
	}
	return 0
}

func (r *run) run(ctx context.Context) (err error) {
	s := r.session
	writer, _ := r.solver.(solver.Writer)
	writable := writer != nil && writer.Writable()

	if r.tx, err = s.db.Begin(writable); err != nil {
		return
	}
	committed := false
	defer func() {
		for _, c := range r.cursors {
			c.Close()
		}
		for _, st := range r.opts.streamers {
			st.Bind(nil)
		}
		if !committed {
			r.tx.Rollback()
		}
	}()
	r.opts.log.Debugf("scan: start over %d iterators, writable=%v", len(s.iters), writable)

	r.cursors = make([]*store.Cursor, len(s.iters))
	for i, it := range s.iters {
		c, err := r.tx.Cursor(it.Scope())
		if err != nil {
			return errors.WithMessagef(err, "scan: iterator %d (%s)", i, it)
		}
		r.cursors[i] = c
		if err = s.positions[i].Load(c); err != nil {
			return errors.WithMessagef(err, "scan: iterator %d (%s)", i, it)
		}
	}
	if writer != nil {
		writer.Attach(r.cursors)
	}
	for _, st := range r.opts.streamers {
		st.Bind(r.tx)
	}

	if err = r.solver.Begin(s.iters); err != nil {
		return
	}
	stopped, err := r.loop(ctx)
	if err != nil {
		return
	}

	// A solver stopping on an exhausted cursor has nothing left to find.
	stopped = stopped && !slices.ContainsFunc(r.cursors, (*store.Cursor).Done)
	for i, c := range r.cursors {
		s.positions[i].Unload(c, stopped)
	}
	if err = r.solver.Finish(); err != nil {
		return
	}
	for _, st := range r.opts.streamers {
		if err = st.Flush(); err != nil {
			return
		}
	}
	if err = r.tx.Commit(); err != nil {
		return
	}
	committed = true
	return
}

// loop runs rounds until the solver stops, reported by stopped, or no
// cursor has a key.
func (r *run) loop(ctx context.Context) (stopped bool, err error) {
	n := len(r.cursors)
	keys := make([]key.Key, n)
	values := make([]any, n)
	for {
		if err = ctx.Err(); err != nil {
			return false, errors.WithStack(err)
		}
		if r.gather(keys, values) == 0 {
			return false, nil
		}
		adv, err := r.solver.Solve(keys, values)
		if err != nil {
			return false, err
		}
		if len(adv) == 0 {
			return true, nil
		}
		if len(adv) != n {
			return false, errors.Wrapf(ErrInternal, "scan: round %d: %d actions for %d cursors", r.rounds+1, len(adv), n)
		}
		moves, err := r.apply(ctx, adv)
		if err != nil {
			return false, err
		}
		if moves == 0 {
			return false, errors.Wrapf(ErrInternal, "scan: round %d: no cursor moved", r.rounds+1)
		}
		r.rounds++
		r.moves += moves
		if r.opts.stats != nil {
			r.opts.stats.RoundDone(moves)
		}
		if r.opts.progress != nil {
			r.opts.progress(Progress{Round: r.rounds, Moves: moves, Matches: r.matches()})
		}
	}
}

// gather fills keys and values from the cursors and returns how many have a
// key. Exhausted and resting cursors report nil.
func (r *run) gather(keys []key.Key, values []any) (live int) {
	for i, c := range r.cursors {
		keys[i], values[i] = nil, nil
		if c.Done() || c.Resting() {
			continue
		}
		keys[i] = c.Key()
		if r.session.iters[i].IsKeyIterator() {
			values[i] = c.PrimaryKey()
		} else {
			values[i] = c.Value()
		}
		live++
	}
	return
}

// apply performs the moves of one round and returns how many were made.
func (r *run) apply(ctx context.Context, adv []store.Action) (moves int, err error) {
	var todo []int
	for i, a := range adv {
		c := r.cursors[i]
		if !a.Moves() {
			continue
		}
		if (c.Done() || c.Resting()) && a.Verb() != store.VerbRestart {
			continue
		}
		todo = append(todo, i)
	}

	limit := r.opts.parallelism
	if !r.session.db.Engine().ConcurrentReads() {
		limit = 1
	}
	if limit <= 1 || len(todo) < 2 {
		for _, i := range todo {
			if err = r.move(i, adv[i]); err != nil {
				return
			}
		}
		return len(todo), nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, i := range todo {
		g.Go(func() error { return r.move(i, adv[i]) })
	}
	if err = g.Wait(); err != nil {
		return
	}
	return len(todo), nil
}

func (r *run) move(i int, a store.Action) (err error) {
	c := r.cursors[i]
	switch a.Verb() {
	case store.VerbAdvance:
		err = c.Advance(1)
	case store.VerbSeek:
		err = c.ContinueEffectiveKey(a.Key())
	case store.VerbSeekPrimary:
		err = c.ContinuePrimaryKey(a.Key())
	case store.VerbRestart:
		err = c.Restart()
	default:
		err = errors.Wrapf(ErrInternal, "scan: unexpected action %s", a)
	}
	if err != nil {
		return errors.WithMessagef(err, "scan: iterator %d (%s)", i, r.session.iters[i])
	}
	return nil
}
