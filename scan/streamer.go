package scan

import (
	"github.com/pkg/errors"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/store"
)

// SinkFunc receives the resolved pairs of a Streamer. Returning true asks
// the streamer to wait until next is called before delivering the next
// pair; returning false lets it go on at once.
type SinkFunc func(k key.Key, v any, next func()) bool

// CollectFunc receives every pair of a collecting Streamer at once.
type CollectFunc func(keys []key.Key, values []any)

type request struct {
	key      key.Key
	value    any
	resolved bool
}

// Streamer resolves pushed keys against a store, or the first entry of an
// index, and forwards the key and record pairs to a sink in push order.
//
// A key pushed without a value is looked up through the transaction the
// streamer is bound to; pairs wait in the pending queue until a transaction
// and a sink are present. A Streamer is a solver.Sink: a solver can push its
// matches straight into it.
//
// A Streamer is not safe for concurrent use.
type Streamer struct {
	store, index string
	tx           *store.Tx
	pending      []request
	sink         SinkFunc
	waiting      bool
	delivering   bool
	seq          uint64

	collecting bool
	collected  bool
	collect    CollectFunc
	keys       []key.Key
	values     []any

	err error
}

// NewStreamer returns a streamer resolving keys against the records of
// storeName, or against index of it when index is not empty.
func NewStreamer(storeName, index string) *Streamer {
	return &Streamer{store: storeName, index: index}
}

// Store returns the store the streamer resolves keys against.
func (s *Streamer) Store() string { return s.store }

// Index returns the index the streamer resolves keys against, if any.
func (s *Streamer) Index() string { return s.index }

// Pending returns how many pushed pairs wait for delivery.
func (s *Streamer) Pending() int { return len(s.pending) }

// Err returns the first lookup error. Delivery stops once it is set.
func (s *Streamer) Err() error { return s.err }

// Push queues k for lookup.
func (s *Streamer) Push(k key.Key) error {
	return s.push(request{key: k})
}

// PushValue queues k with its value, bypassing the lookup.
func (s *Streamer) PushValue(k key.Key, v any) error {
	return s.push(request{key: k, value: v, resolved: true})
}

func (s *Streamer) push(req request) (err error) {
	if s.collecting {
		return errors.Wrap(ErrInvalidOperation, "streamer: push while collecting")
	}
	if s.err != nil {
		return s.err
	}
	if req.key, err = key.Normalize(req.key); err != nil {
		return
	}
	s.pending = append(s.pending, req)
	s.drain()
	return s.err
}

// SetSink sets the function pairs are delivered to and delivers the pairs
// already pending.
func (s *Streamer) SetSink(fn SinkFunc) {
	s.sink = fn
	s.drain()
}

// Collect switches the streamer to batch mode: the sink is disabled and fn
// receives every pending pair once the queue is drained. Pushing afterwards
// fails with ErrInvalidOperation until Reset.
func (s *Streamer) Collect(fn CollectFunc) error {
	if s.collecting {
		return errors.Wrap(ErrInvalidOperation, "streamer: already collecting")
	}
	if fn == nil {
		return errors.Wrap(ErrArgument, "streamer: nil collect callback")
	}
	s.collecting, s.collect = true, fn
	s.waiting = false
	s.drain()
	return s.err
}

// Bind sets the transaction keys are looked up in. A nil tx unbinds it.
func (s *Streamer) Bind(tx *store.Tx) {
	s.tx = tx
	s.drain()
}

// Flush looks up every pending key while a transaction is bound, so that
// pairs still held back by a waiting sink no longer need it, then delivers
// as far as the sink allows.
func (s *Streamer) Flush() error {
	if s.tx != nil {
		for i := range s.pending {
			if err := s.resolve(&s.pending[i]); err != nil {
				s.err = err
				break
			}
		}
	}
	s.drain()
	return s.err
}

// Reset drops every pending pair and leaves batch mode. The sink and the
// transaction are kept.
func (s *Streamer) Reset() {
	s.pending = nil
	s.waiting, s.err = false, nil
	s.collecting, s.collected, s.collect = false, false, nil
	s.keys, s.values = nil, nil
	s.seq++
}

// drain delivers pending pairs until the queue is empty, a lookup lacks a
// transaction, or the sink waits.
func (s *Streamer) drain() {
	if s.delivering {
		return
	}
	s.delivering = true
	defer func() { s.delivering = false }()

	for len(s.pending) > 0 && s.err == nil && !s.waiting {
		if !s.collecting && s.sink == nil {
			return
		}
		req := &s.pending[0]
		if !req.resolved {
			if s.tx == nil {
				return
			}
			if err := s.resolve(req); err != nil {
				s.err = err
				return
			}
		}
		k, v := req.key, req.value
		s.pending[0] = request{}
		s.pending = s.pending[1:]

		if s.collecting {
			s.keys = append(s.keys, k)
			s.values = append(s.values, v)
			continue
		}
		s.seq++
		seq := s.seq
		s.waiting = true
		next := func() {
			if seq != s.seq || !s.waiting {
				return
			}
			s.waiting = false
			s.drain()
		}
		if !s.sink(k, v, next) {
			s.waiting = false
		}
	}
	if s.collecting && !s.collected && len(s.pending) == 0 && s.err == nil {
		s.collected = true
		s.collect(s.keys, s.values)
	}
}

func (s *Streamer) resolve(req *request) error {
	if req.resolved {
		return nil
	}
	if _, err := s.tx.DB().Schema().Store(s.store); err != nil {
		return errors.WithMessage(err, "streamer")
	}
	if s.index == "" {
		v, err := s.tx.Get(s.store, req.key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return errors.WithMessagef(err, "streamer: %s", s.store)
		}
		req.value, req.resolved = v, true
		return nil
	}

	rng, err := key.Only(req.key)
	if err != nil {
		return err
	}
	c, err := s.tx.Cursor(store.Scope{Store: s.store, Index: s.index, Range: rng})
	if err != nil {
		return errors.WithMessagef(err, "streamer: %s.%s", s.store, s.index)
	}
	defer c.Close()
	if err = c.Open(nil, nil, false); err != nil {
		return errors.WithMessagef(err, "streamer: %s.%s", s.store, s.index)
	}
	req.value, req.resolved = c.Value(), true
	return nil
}
