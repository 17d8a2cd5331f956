package store

import (
	"fmt"

	"github.com/dacapoday/zigzag/key"
	"github.com/pkg/errors"
)

// Direction is the order a cursor visits its range in.
type Direction uint8

const (
	// Next visits ascending by effective key, then primary key.
	Next Direction = iota
	// NextUnique visits ascending, only the first primary key of every
	// distinct index key.
	NextUnique
	// Prev visits descending.
	Prev
	// PrevUnique visits descending, only the first primary key of every
	// distinct index key.
	PrevUnique
)

// Reversed reports whether d visits keys in descending order.
func (d Direction) Reversed() bool { return d == Prev || d == PrevUnique }

// Unique reports whether d skips duplicate index keys.
func (d Direction) Unique() bool { return d == NextUnique || d == PrevUnique }

// Reverse returns the opposite direction, keeping uniqueness.
func (d Direction) Reverse() Direction {
	switch d {
	case Next:
		return Prev
	case NextUnique:
		return PrevUnique
	case Prev:
		return Next
	}
	return NextUnique
}

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case NextUnique:
		return "nextunique"
	case Prev:
		return "prev"
	case PrevUnique:
		return "prevunique"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// ParseDirection parses the String form of a direction.
func ParseDirection(s string) (Direction, error) {
	for d := Next; d <= PrevUnique; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return Next, errors.Wrapf(ErrArgument, "unknown direction %q", s)
}

// Verb is the kind of an Action.
type Verb uint8

const (
	VerbContinue Verb = iota
	VerbSkip
	VerbSeek
	VerbSeekPrimary
	VerbAdvance
	VerbRestart
)

// Action tells a cursor what to do next. Filters return one for every
// position a cursor lands on; solvers return one per cursor every round.
type Action struct {
	verb Verb
	key  key.Key
}

var (
	// Continue reports the position to a filter's caller. In a solver
	// result it leaves the cursor where it is.
	Continue = Action{verb: VerbContinue}
	// Skip stops the cursor at this position without reporting it. The
	// cursor rests and a later scan resumes from the same position.
	Skip = Action{verb: VerbSkip}
	// Advance steps once more in the cursor direction.
	Advance = Action{verb: VerbAdvance}
	// Restart goes back to the start of the range.
	Restart = Action{verb: VerbRestart}
)

// SeekTo moves to the first position whose effective key is at or past k in
// the cursor direction.
func SeekTo(k key.Key) Action {
	return Action{verb: VerbSeek, key: k}
}

// SeekPrimary moves to primary key pk under the current index key, or the
// next position past it.
func SeekPrimary(pk key.Key) Action {
	return Action{verb: VerbSeekPrimary, key: pk}
}

// Verb returns the kind of a.
func (a Action) Verb() Verb { return a.verb }

// Key returns the target of a SeekTo or SeekPrimary action.
func (a Action) Key() key.Key { return a.key }

// Moves reports whether applying a changes the cursor position.
func (a Action) Moves() bool { return a.verb != VerbContinue && a.verb != VerbSkip }

func (a Action) String() string {
	switch a.verb {
	case VerbContinue:
		return "continue"
	case VerbSkip:
		return "skip"
	case VerbSeek:
		return fmt.Sprintf("seek(%v)", a.key)
	case VerbSeekPrimary:
		return fmt.Sprintf("seekPrimary(%v)", a.key)
	case VerbAdvance:
		return "advance"
	case VerbRestart:
		return "restart"
	}
	return fmt.Sprintf("Action(%d)", uint8(a.verb))
}

// Filter is consulted on every position a cursor lands on. k is the
// effective key, pk the primary key and v the record (nil for key-only
// cursors).
type Filter func(k, pk key.Key, v any) Action

// Scope describes what a cursor walks.
type Scope struct {
	Store string
	// Index names a secondary index of Store; empty walks the store itself.
	Index     string
	Range     *key.Range
	Direction Direction
	// KeyOnly cursors do not load records.
	KeyOnly bool
	Filter  Filter
}
