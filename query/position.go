package query

import (
	"fmt"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/store"
)

// State is the lifecycle stage of a Position.
type State uint8

const (
	// Initial: never scanned, or reset.
	Initial State = iota
	// Working: bound to a cursor of a running scan.
	Working
	// Completed: the cursor ran past its range. The next scan starts over.
	Completed
	// Resting: the scan stopped before the range was exhausted. The next
	// scan resumes from the saved position.
	Resting
)

func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case Working:
		return "working"
	case Completed:
		return "completed"
	case Resting:
		return "resting"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Position is the scan state of one Iterator within a session.
type Position struct {
	state     State
	key, pk   key.Key
	value     any
	count     int
	exclusive bool
}

func (p *Position) State() State        { return p.state }
func (p *Position) Key() key.Key        { return p.key }
func (p *Position) PrimaryKey() key.Key { return p.pk }
func (p *Position) Value() any          { return p.value }

// Count returns the cursor moves made over every scan since the last Reset.
func (p *Position) Count() int { return p.count }

// Reset returns to Initial.
func (p *Position) Reset() {
	*p = Position{}
}

// Resume makes the next scan start right after k and pk (pk is only used
// by index iterators).
func (p *Position) Resume(k, pk key.Key) {
	p.state = Resting
	p.key, p.pk, p.value = k, pk, nil
	p.exclusive = true
}

// Load opens c at the start of its range, or at the saved position of a
// Resting position.
func (p *Position) Load(c *store.Cursor) (err error) {
	if p.state == Resting {
		err = c.Open(p.key, p.pk, p.exclusive)
	} else {
		err = c.Open(nil, nil, false)
	}
	if err != nil {
		return
	}
	p.state = Working
	p.Track(c)
	return
}

// Track copies the cursor position.
func (p *Position) Track(c *store.Cursor) {
	p.key, p.pk, p.value = c.Key(), c.PrimaryKey(), c.Value()
}

// Unload records where c stopped. stopped tells whether the scan ended
// before c was exhausted; a cursor resting on a filter Skip resumes at its
// position, any other stopped cursor right after it.
func (p *Position) Unload(c *store.Cursor, stopped bool) {
	p.count += c.Count()
	switch {
	case c.Done() || !stopped && !c.Resting():
		p.state = Completed
		p.key, p.pk, p.value = nil, nil, nil
	case c.Resting():
		p.state = Resting
		p.Track(c)
		p.exclusive = false
	default:
		p.state = Resting
		p.Track(c)
		p.exclusive = true
	}
}
