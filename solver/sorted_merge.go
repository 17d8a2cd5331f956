package solver

import (
	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/store"
)

// SortedMerge intersects key iterators sorted on primary key. Iterator 0 is
// the base. Every round either reports a common key and advances every
// cursor, or seeks the cursors lagging behind the furthest key to it, so
// each cursor only moves forward.
type SortedMerge struct {
	Base
}

// NewSortedMerge returns a SortedMerge pushing at most limit matches to sink.
func NewSortedMerge(sink Sink, limit int) *SortedMerge {
	s := new(SortedMerge)
	s.Init(sink, limit)
	return s
}

func (s *SortedMerge) Begin(iters []*query.Iterator) error {
	if err := s.Base.Begin(iters); err != nil {
		return err
	}
	return requireKeys(iters)
}

func (s *SortedMerge) Solve(keys []key.Key, values []any) ([]store.Action, error) {
	for _, k := range keys {
		if k == nil {
			return nil, nil
		}
	}
	n := len(values)
	base := values[0]

	match, ahead := true, false
	highest := base
	for i := 1; i < n; i++ {
		c := s.compare(base, values[i])
		if c != 0 {
			match = false
		}
		if c < 0 {
			ahead = true
		}
		if s.compare(highest, values[i]) < 0 {
			highest = values[i]
		}
	}

	if match {
		return s.Push(actions(n, store.Advance), keys, values, nil)
	}

	adv := actions(n, store.Continue)
	target := base
	if ahead {
		target = highest
	}
	for i := range values {
		if s.compare(values[i], target) < 0 {
			adv[i] = store.SeekPrimary(target)
		}
	}
	return adv, nil
}
