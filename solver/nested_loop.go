package solver

import (
	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/store"
)

// NestedLoop joins by walking the cross product of its cursors, outermost
// first, and reports the tuples whose values are all equal. Each round moves
// the innermost cursor; an exhausted level moves the level above it and
// restarts itself and every level below.
type NestedLoop struct {
	Base
	current int
}

// NewNestedLoop returns a NestedLoop pushing at most limit matches to sink.
func NewNestedLoop(sink Sink, limit int) *NestedLoop {
	s := new(NestedLoop)
	s.Init(sink, limit)
	return s
}

func (s *NestedLoop) Begin(iters []*query.Iterator) error {
	if err := s.Base.Begin(iters); err != nil {
		return err
	}
	s.current = len(iters) - 1
	return nil
}

// Loop returns the level moved by the last round.
func (s *NestedLoop) Loop() int { return s.current }

func (s *NestedLoop) Solve(keys []key.Key, values []any) ([]store.Action, error) {
	if keys[0] == nil {
		return nil, nil
	}
	n := len(keys)
	adv := actions(n, store.Continue)

	exhausted := n
	for i := 1; i < n; i++ {
		if keys[i] == nil {
			exhausted = i
			break
		}
	}
	if exhausted < n {
		s.current = exhausted - 1
		adv[s.current] = store.Advance
		for i := exhausted; i < n; i++ {
			adv[i] = store.Restart
		}
		return adv, nil
	}

	s.current = n - 1
	adv[s.current] = store.Advance
	return s.Push(adv, keys, values, nil)
}
