package solver

import (
	"github.com/pkg/errors"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/store"
)

// ZigzagMerge intersects compound index iterators whose keys share a
// trailing order field, such as [color, name] and [legs, name] walked with
// key.Starts on the leading field. Each key splits into the prefix fixed by
// the iterator's range and the postfix the join runs on.
//
// Iterator 0 is the primary iterator; the others filter it. Postfixes read
// from iterator 0 wait in a buffer until the filters agree on a postfix.
// Buffered postfixes behind the agreed one can no longer match and are
// evicted. When the oldest buffered postfix equals the agreed one it is a
// match; otherwise the filters seek to it or iterator 0 seeks to the filters.
type ZigzagMerge struct {
	Base
	prefix []int
	buffer []pending
}

type pending struct {
	postfix key.Key
	value   any
}

// NewZigzagMerge returns a ZigzagMerge pushing at most limit matches to sink.
func NewZigzagMerge(sink Sink, limit int) *ZigzagMerge {
	s := new(ZigzagMerge)
	s.Init(sink, limit)
	return s
}

func (s *ZigzagMerge) Begin(iters []*query.Iterator) error {
	if err := s.Base.Begin(iters); err != nil {
		return err
	}
	if len(iters) < 2 {
		return errors.Wrap(ErrArgument, "solver: zigzag merge needs at least two iterators")
	}
	if err := requireKeys(iters); err != nil {
		return err
	}
	s.prefix = make([]int, len(iters))
	for i, it := range iters {
		s.prefix[i] = it.KeyRange().PrefixLen()
	}
	s.buffer = s.buffer[:0]
	return nil
}

// Buffered returns the number of postfixes waiting for the filters.
func (s *ZigzagMerge) Buffered() int { return len(s.buffer) }

func (s *ZigzagMerge) postfix(i int, k key.Key) key.Key {
	if s.prefix[i] == 0 {
		return k
	}
	return key.Slice(k, s.prefix[i])
}

// target builds the effective key of iterator i for postfix p, keeping the
// prefix of its current key k.
func (s *ZigzagMerge) target(i int, k, p key.Key) key.Key {
	n := s.prefix[i]
	if n == 0 {
		return p
	}
	head := k.([]any)[:n]
	return key.Join(head, p)
}

func (s *ZigzagMerge) Solve(keys []key.Key, values []any) ([]store.Action, error) {
	n := len(keys)
	for i := 1; i < n; i++ {
		if keys[i] == nil {
			return nil, nil
		}
	}

	var post0 key.Key
	if keys[0] != nil {
		post0 = s.postfix(0, keys[0])
		if last := len(s.buffer) - 1; last < 0 || s.compare(s.buffer[last].postfix, post0) != 0 {
			s.buffer = append(s.buffer, pending{post0, values[0]})
		}
	}

	adv := actions(n, store.Continue)

	posts := make([]key.Key, n)
	highest := s.postfix(1, keys[1])
	agree := true
	for i := 1; i < n; i++ {
		posts[i] = s.postfix(i, keys[i])
		switch c := s.compare(posts[i], highest); {
		case c > 0:
			highest, agree = posts[i], false
		case c < 0:
			agree = false
		}
	}

	if !agree {
		for i := 1; i < n; i++ {
			if s.compare(posts[i], highest) < 0 {
				adv[i] = store.SeekTo(s.target(i, keys[i], highest))
			}
		}
		if post0 != nil && s.compare(post0, highest) < 0 {
			adv[0] = store.Advance
		}
		return adv, nil
	}

	evict := 0
	for evict < len(s.buffer) && s.compare(s.buffer[evict].postfix, highest) < 0 {
		evict++
	}
	s.buffer = s.buffer[evict:]

	switch {
	case len(s.buffer) > 0 && s.compare(s.buffer[0].postfix, highest) == 0:
		match := s.buffer[0].value
		s.buffer = s.buffer[1:]
		for i := 1; i < n; i++ {
			adv[i] = store.Advance
		}
		if post0 != nil && s.compare(post0, highest) <= 0 {
			adv[0] = store.Advance
		}
		return s.Push(adv, keys, values, match)

	case len(s.buffer) > 0:
		front := s.buffer[0].postfix
		for i := 1; i < n; i++ {
			adv[i] = store.SeekTo(s.target(i, keys[i], front))
		}
		return adv, nil

	case post0 == nil:
		return nil, nil
	}

	adv[0] = store.SeekTo(s.target(0, keys[0], highest))
	return adv, nil
}
