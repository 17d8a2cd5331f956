package solver

import (
	"unicode"

	"github.com/pkg/errors"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/store"
)

// CaseInsensitive reports the entries of one ascending string iterator that
// start with a prefix, ignoring case.
//
// A key that does not match is compared with the prefix rune by rune. The
// solver seeks to the smallest string above the key that could still start
// with some casing of the prefix, so it visits one candidate per casing
// actually present instead of the whole range. It stops when no casing is
// left above the key.
type CaseInsensitive struct {
	Base
	lower, upper []rune
}

// NewCaseInsensitive returns a solver pushing at most limit matches of prefix
// to sink.
func NewCaseInsensitive(prefix string, sink Sink, limit int) *CaseInsensitive {
	s := new(CaseInsensitive)
	s.Init(sink, limit)
	for _, r := range prefix {
		s.lower = append(s.lower, unicode.ToLower(r))
		s.upper = append(s.upper, unicode.ToUpper(r))
	}
	return s
}

func (s *CaseInsensitive) Begin(iters []*query.Iterator) error {
	if err := s.Base.Begin(iters); err != nil {
		return err
	}
	if len(iters) != 1 || iters[0].IsReversed() {
		return errors.Wrap(ErrArgument, "solver: case-insensitive search walks exactly one ascending iterator")
	}
	return nil
}

func (s *CaseInsensitive) Solve(keys []key.Key, values []any) ([]store.Action, error) {
	switch k := keys[0].(type) {
	case nil:
		return nil, nil
	case string:
		runes := []rune(k)
		if s.matches(runes) {
			return s.Push([]store.Action{store.Advance}, keys, values, values[0])
		}
		next, ok := s.nextCasing(runes)
		if !ok {
			return nil, nil
		}
		if next <= k {
			return []store.Action{store.Advance}, nil
		}
		return []store.Action{store.SeekTo(next)}, nil
	case []any:
		// arrays sort after every string
		return nil, nil
	}
	// numbers and dates sort before every string
	return []store.Action{store.SeekTo(string(s.upper))}, nil
}

func (s *CaseInsensitive) matches(runes []rune) bool {
	if len(runes) < len(s.lower) {
		return false
	}
	for i, r := range s.lower {
		if unicode.ToLower(runes[i]) != r {
			return false
		}
	}
	return true
}

// nextCasing returns the smallest string above the key runes that starts
// with a casing of the prefix, given that the key itself does not.
func (s *CaseInsensitive) nextCasing(runes []rune) (string, bool) {
	n := min(len(runes), len(s.lower))
	// last position where k holds an upper-case rune that could be raised
	// to its lower-case form
	raise := -1
	for i := 0; i < n; i++ {
		r, lr := runes[i], unicode.ToLower(runes[i])
		if lr != s.lower[i] {
			switch {
			case r < s.upper[i]:
				return string(runes[:i]) + string(s.upper[i:]), true
			case r < s.lower[i]:
				return string(runes[:i]) + string(s.lower[i]) + string(s.upper[i+1:]), true
			case raise >= 0:
				return string(runes[:raise]) + string(s.lower[raise]) + string(s.upper[raise+1:]), true
			}
			return "", false
		}
		if r < lr {
			raise = i
		}
	}
	if n < len(s.lower) {
		return string(runes) + string(s.upper[n:]), true
	}
	if raise >= 0 {
		return string(runes[:raise]) + string(s.lower[raise]) + string(s.upper[raise+1:]), true
	}
	return "", false
}
