package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/store"
)

func newViewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view [flags] STORE",
		Short: "Browse the records of a store interactively.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			defer db.Close()
			return db.View(func(tx *store.Tx) error {
				return runView(tx, args[0])
			})
		},
	}
}

func runView(tx *store.Tx, storeName string) error {
	fwd, err := tx.Cursor(store.Scope{Store: storeName})
	if err != nil {
		return err
	}
	defer fwd.Close()
	rev, err := tx.Cursor(store.Scope{Store: storeName, Direction: store.Prev})
	if err != nil {
		return err
	}
	defer rev.Close()
	if err = fwd.Open(nil, nil, false); err != nil {
		return err
	}
	if err = rev.Open(nil, nil, false); err != nil {
		return err
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	v := &viewer{
		name: storeName,
		fwd:  fwd,
		rev:  rev,
	}
	v.updateSize()
	v.load(nil)

	fmt.Print("\033[?25l\033[2J")             // hide cursor, clear screen once
	defer fmt.Print("\033[?25h\033[2J\033[H") // show cursor, clear screen

	reader := bufio.NewReader(os.Stdin)

	for {
		if v.updateSize() {
			v.reload()
		}
		v.render()

		b, err := reader.ReadByte()
		if err != nil {
			return nil
		}

		v.status = ""

		switch b {
		case 'q', 3, 27: // q, Ctrl+C, Esc
			if b == 27 && reader.Buffered() > 0 {
				// escape sequence
				b2, _ := reader.ReadByte()
				if b2 == '[' {
					b3, _ := reader.ReadByte()
					switch b3 {
					case 'A': // up
						v.up()
					case 'B': // down
						v.down()
					case '5': // page up
						reader.ReadByte()
						v.pageUp()
					case '6': // page down
						reader.ReadByte()
						v.pageDown()
					}
				}
				continue
			}
			return nil
		case 'j':
			v.down()
		case 'k':
			v.up()
		case 'g':
			v.load(nil)
		case 'G':
			v.last()
		case '/':
			v.search(reader)
		}
	}
}

type item struct {
	key key.Key
	val any
}

// viewer shows a window of records. fwd and rev are cursors over the same
// store walking opposite directions; both are repositioned on every move.
type viewer struct {
	name    string
	fwd     *store.Cursor
	rev     *store.Cursor
	items   []item
	width   int
	height  int
	atStart bool // no more items before first
	atEnd   bool // no more items after last
	status  string
}

// updateSize checks terminal size and returns true if changed.
func (v *viewer) updateSize() bool {
	w, h, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	if w == v.width && h == v.height {
		return false
	}
	v.width, v.height = w, h
	return true
}

func (v *viewer) lines() int {
	return v.height - 4 // title + separator + separator + status
}

func (v *viewer) fail(err error) bool {
	v.status = err.Error()
	return false
}

// seek positions c at k, or at the start of its walk when k is nil, and
// reports whether it has a record there.
func (v *viewer) seek(c *store.Cursor, k key.Key) bool {
	if c.Done() || k == nil {
		if err := c.Restart(); err != nil {
			return v.fail(err)
		}
		if k == nil || c.Done() {
			return !c.Done()
		}
	}
	if err := c.ContinueEffectiveKey(k); err != nil {
		return v.fail(err)
	}
	return !c.Done()
}

// step returns the record following k in the direction of c.
func (v *viewer) step(c *store.Cursor, k key.Key) (item, bool) {
	if !v.seek(c, k) {
		return item{}, false
	}
	if key.Compare(c.Key(), k) == 0 {
		if err := c.Advance(1); err != nil {
			return item{}, v.fail(err)
		}
		if c.Done() {
			return item{}, false
		}
	}
	return item{key: c.Key(), val: c.Value()}, true
}

// load fills the window starting at the first record at or after from.
func (v *viewer) load(from key.Key) {
	v.items = nil
	v.atStart, v.atEnd = false, false

	if !v.seek(v.fwd, from) {
		v.atStart, v.atEnd = true, true
		return
	}
	for i := 0; i < v.lines() && !v.fwd.Done(); i++ {
		v.items = append(v.items, item{key: v.fwd.Key(), val: v.fwd.Value()})
		if err := v.fwd.Advance(1); err != nil {
			v.fail(err)
			break
		}
	}
	v.atEnd = v.fwd.Done()
	if len(v.items) == 0 {
		return
	}
	_, before := v.step(v.rev, v.items[0].key)
	v.atStart = !before
}

func (v *viewer) reload() {
	if len(v.items) == 0 {
		v.load(nil)
		return
	}
	v.load(v.items[0].key)
}

func (v *viewer) down() {
	if len(v.items) == 0 {
		return
	}

	last := v.items[len(v.items)-1].key
	if it, ok := v.step(v.fwd, last); ok {
		// add new at bottom, remove from top
		v.items = append(v.items[1:], it)
		v.atStart = false
		_, more := v.step(v.fwd, it.key)
		v.atEnd = !more
	} else if len(v.items) > 1 {
		// at end, allow scrolling until only 1 item visible
		v.items = v.items[1:]
		v.atEnd = true
	}
}

func (v *viewer) up() {
	if v.atStart || len(v.items) == 0 {
		return
	}

	it, ok := v.step(v.rev, v.items[0].key)
	if !ok {
		v.atStart = true
		return
	}
	// only remove from bottom if screen is full
	if len(v.items) >= v.lines() {
		v.items = append([]item{it}, v.items[:len(v.items)-1]...)
	} else {
		v.items = append([]item{it}, v.items...)
	}
	v.atEnd = false
	_, more := v.step(v.rev, it.key)
	v.atStart = !more
}

func (v *viewer) pageDown() {
	for i := 0; i < v.lines()-1; i++ {
		v.down()
	}
}

func (v *viewer) pageUp() {
	for i := 0; i < v.lines()-1; i++ {
		v.up()
	}
}

func (v *viewer) last() {
	if !v.seek(v.rev, nil) {
		v.load(nil)
		return
	}
	// back up to show a full screen
	for i := 0; i < v.lines()-1; i++ {
		if err := v.rev.Advance(1); err != nil || v.rev.Done() {
			break
		}
	}
	if v.rev.Done() {
		v.load(nil)
		return
	}
	v.load(v.rev.Key())
}

func (v *viewer) search(reader *bufio.Reader) {
	fmt.Print("\033[?25h") // show cursor
	fmt.Printf("\033[%d;1H\033[K/", v.height)

	var input []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if b == 27 || b == 3 { // Esc or Ctrl+C
			fmt.Print("\033[?25l")
			v.status = ""
			return
		}
		if b == 13 || b == 10 { // Enter
			break
		}
		if b == 127 || b == 8 { // Backspace
			if len(input) > 0 {
				input = input[:len(input)-1]
				fmt.Print("\b \b")
			}
			continue
		}
		if b >= 32 && b < 127 {
			input = append(input, b)
			fmt.Print(string(b))
		}
	}
	fmt.Print("\033[?25l")

	if len(input) == 0 {
		v.status = ""
		return
	}

	k, err := parseKey(string(input))
	if err != nil {
		v.fail(err)
		return
	}
	if v.seek(v.fwd, k) {
		v.load(k)
		v.status = fmt.Sprintf("jumped to: %s", display(formatKey(k), 20))
	} else if v.status == "" {
		v.status = "not found"
	}
}

func (v *viewer) render() {
	var b strings.Builder

	// move to top (no clear)
	b.WriteString("\033[H")

	b.WriteString("[ zigzag: ")
	b.WriteString(v.name)
	b.WriteString(" ]\033[K\r\n")
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	keyWidth := 32
	valWidth := max(v.width-keyWidth-4, 20)

	lines := v.lines()
	for i := 0; i < lines; i++ {
		if i < len(v.items) {
			it := v.items[i]
			b.WriteString(display(formatKey(it.key), keyWidth))
			b.WriteString(": ")
			b.WriteString(display(formatValue(it.val), valWidth))
		} else {
			b.WriteString("~")
		}
		b.WriteString("\033[K\r\n")
	}

	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	pos := ""
	switch {
	case v.atStart && v.atEnd:
		pos = "[all]"
	case v.atStart:
		pos = "[top]"
	case v.atEnd:
		pos = "[end]"
	}

	if v.status != "" {
		b.WriteString(" ")
		b.WriteString(v.status)
		b.WriteString(" ")
		b.WriteString(pos)
	} else {
		b.WriteString(" j/k:scroll g/G:jump /:seek q:quit ")
		b.WriteString(pos)
	}
	b.WriteString("\033[K")

	fmt.Print(b.String())
}
