package solver_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/memdb"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/scan"
	"github.com/dacapoday/zigzag/schema"
	"github.com/dacapoday/zigzag/solver"
	"github.com/dacapoday/zigzag/store"
)

const testSchema = `
stores:
  - name: animals
    keyPath: name
    indexes:
      - name: color
        keyPath: color
      - name: legs
        keyPath: legs
      - name: color_name
        keyPath: [color, name]
      - name: legs_name
        keyPath: [legs, name]
  - name: words
    keyPath: word
`

type animal struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Legs  int    `json:"legs"`
}

type word struct {
	Word string `json:"word"`
}

var animals = []animal{
	{"rat", "brown", 4},
	{"cow", "spots", 4},
	{"galon", "gold", 2},
	{"cat", "spots", 4},
	{"snake", "spots", 0},
	{"ox", "black", 4},
	{"chicken", "red", 2},
}

var words = []string{"CAT", "Cat", "Cobra", "Dog", "bat", "cAt", "ca", "cat", "caterpillar", "dog"}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	s, err := schema.Parse([]byte(testSchema))
	require.NoError(t, err)
	db, err := store.Open(memdb.New(), s)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Update(func(tx *store.Tx) error {
		for _, a := range animals {
			if _, err := tx.Put("animals", a); err != nil {
				return err
			}
		}
		for _, w := range words {
			if _, err := tx.Put("words", word{w}); err != nil {
				return err
			}
		}
		return nil
	}))
	return db
}

func where(t *testing.T, index, op string, v key.Key) *query.Iterator {
	t.Helper()
	it, err := query.Where("animals", index, op, v)
	require.NoError(t, err)
	return it
}

func starts(t *testing.T, index string, prefix key.Key) *query.Iterator {
	t.Helper()
	rng, err := key.Starts(prefix)
	require.NoError(t, err)
	return query.NewIndexIterator("animals", index, rng)
}

func run(t *testing.T, db *store.DB, s solver.Solver, iters ...*query.Iterator) *scan.Session {
	t.Helper()
	session, err := scan.NewSession(db, iters...)
	require.NoError(t, err)
	require.NoError(t, session.Scan(context.Background(), s))
	return session
}

func TestNestedLoop(t *testing.T) {
	db := openDB(t)
	names, err := key.Bound("a", "d", false, false)
	require.NoError(t, err)
	iters := []*query.Iterator{
		where(t, "color", "=", "spots"),
		where(t, "legs", "=", 4),
		query.NewKeyIterator("animals", names),
	}

	var out solver.Collector
	nl := solver.NewNestedLoop(&out, 0)
	session := run(t, db, nl, iters...)
	require.Equal(t, []key.Key{"cat", "cow"}, out.Keys)
	// 3 spotted, 4 four-legged and 3 names below "d"
	require.GreaterOrEqual(t, session.Stats().Rounds, 3*4*3)

	for i, it := range iters {
		iters[i] = it.Reverse()
	}
	out.Keys = nil
	run(t, db, solver.NewNestedLoop(&out, 0), iters...)
	require.ElementsMatch(t, []key.Key{"cat", "cow"}, out.Keys)
}

func TestNestedLoopEmptyLevel(t *testing.T) {
	db := openDB(t)
	var out solver.Collector
	run(t, db, solver.NewNestedLoop(&out, 0),
		where(t, "color", "=", "spots"),
		where(t, "color", "=", "purple"),
	)
	require.Empty(t, out.Keys)
}

func TestSortedMerge(t *testing.T) {
	db := openDB(t)
	spots, four := where(t, "color", "=", "spots"), where(t, "legs", "=", 4)

	var out solver.Collector
	session := run(t, db, solver.NewSortedMerge(&out, 0), spots, four)
	require.Equal(t, []key.Key{"cat", "cow"}, out.Keys)

	moves := session.Position(0).Count() + session.Position(1).Count()
	require.LessOrEqual(t, moves, 3+4)
	require.Equal(t, query.Completed, session.Position(0).State())
	require.Equal(t, query.Completed, session.Position(1).State())

	out.Keys = nil
	run(t, db, solver.NewSortedMerge(&out, 0), spots.Reverse(), four.Reverse())
	require.Equal(t, []key.Key{"cow", "cat"}, out.Keys)
}

func TestSortedMergeThreeWay(t *testing.T) {
	db := openDB(t)
	names, err := key.Bound("c", "d", false, true)
	require.NoError(t, err)

	var out solver.Collector
	run(t, db, solver.NewSortedMerge(&out, 0),
		query.NewKeyIterator("animals", names),
		where(t, "legs", "=", 4),
		where(t, "color", "=", "spots"),
	)
	require.Equal(t, []key.Key{"cat", "cow"}, out.Keys)
}

func TestZigzagMerge(t *testing.T) {
	db := openDB(t)
	var out solver.Collector
	zz := solver.NewZigzagMerge(&out, 0)
	run(t, db, zz, starts(t, "color_name", []any{"spots"}), starts(t, "legs_name", []any{4}))
	require.Equal(t, []key.Key{"cat", "cow"}, out.Keys)

	out.Keys = nil
	run(t, db, solver.NewZigzagMerge(&out, 0), starts(t, "legs_name", []any{4}), starts(t, "color_name", []any{"spots"}))
	require.Equal(t, []key.Key{"cat", "cow"}, out.Keys)

	out.Keys = nil
	run(t, db, solver.NewZigzagMerge(&out, 0), starts(t, "legs_name", []any{2}), starts(t, "color_name", []any{"spots"}))
	require.Empty(t, out.Keys)

	out.Keys = nil
	run(t, db, solver.NewZigzagMerge(&out, 0),
		starts(t, "color_name", []any{"spots"}),
		starts(t, "legs_name", []any{4}),
		starts(t, "legs_name", []any{4}),
	)
	require.Equal(t, []key.Key{"cat", "cow"}, out.Keys)

	out.Keys = nil
	run(t, db, solver.NewZigzagMerge(&out, 0),
		starts(t, "color_name", []any{"spots"}).Reverse(),
		starts(t, "legs_name", []any{4}).Reverse(),
	)
	require.Equal(t, []key.Key{"cow", "cat"}, out.Keys)
}

func TestCaseInsensitive(t *testing.T) {
	db := openDB(t)
	var out solver.Collector
	session := run(t, db, solver.NewCaseInsensitive("cat", &out, 0), query.NewKeyIterator("words", nil))
	require.Equal(t, []key.Key{"CAT", "Cat", "cAt", "cat", "caterpillar"}, out.Keys)
	require.Less(t, session.Stats().Rounds, len(words))

	out.Keys = nil
	run(t, db, solver.NewCaseInsensitive("DO", &out, 0), query.NewKeyIterator("words", nil))
	require.Equal(t, []key.Key{"Dog", "dog"}, out.Keys)

	out.Keys = nil
	run(t, db, solver.NewCaseInsensitive("cAt", &out, 2), query.NewKeyIterator("words", nil))
	require.Equal(t, []key.Key{"CAT", "Cat"}, out.Keys)

	out.Keys = nil
	run(t, db, solver.NewCaseInsensitive("zebra", &out, 0), query.NewKeyIterator("words", nil))
	require.Empty(t, out.Keys)
}

func TestLimit(t *testing.T) {
	var out solver.Collector
	s := solver.NewSortedMerge(&out, 2)
	a, b := query.NewKeyIterator("a", nil), query.NewKeyIterator("b", nil)
	require.NoError(t, s.Begin([]*query.Iterator{a, b}))

	adv, err := s.Solve([]key.Key{"x", "x"}, []any{"x", "x"})
	require.NoError(t, err)
	require.Equal(t, []store.Action{store.Advance, store.Advance}, adv)

	adv, err = s.Solve([]key.Key{"y", "y"}, []any{"y", "y"})
	require.NoError(t, err)
	require.Empty(t, adv)
	require.Equal(t, []key.Key{"x", "y"}, out.Keys)
	require.Equal(t, 2, s.Count())

	require.NoError(t, s.Begin([]*query.Iterator{a, b}))
	require.Zero(t, s.Count())
}

func TestLimitScan(t *testing.T) {
	db := openDB(t)
	var out solver.Collector
	run(t, db, solver.NewNestedLoop(&out, 1), where(t, "color", "=", "spots"), where(t, "legs", "=", 4))
	require.Equal(t, []key.Key{"cat"}, out.Keys)
}

func TestBeginErrors(t *testing.T) {
	a := query.NewKeyIterator("animals", nil)
	v := query.NewValueIterator("animals", nil)

	require.ErrorIs(t, solver.NewSortedMerge(nil, 0).Begin(nil), solver.ErrArgument)
	require.ErrorIs(t, solver.NewSortedMerge(nil, 0).Begin([]*query.Iterator{a, a.Reverse()}), solver.ErrArgument)
	require.ErrorIs(t, solver.NewSortedMerge(nil, 0).Begin([]*query.Iterator{a, v}), solver.ErrArgument)
	require.ErrorIs(t, solver.NewZigzagMerge(nil, 0).Begin([]*query.Iterator{a}), solver.ErrArgument)
	require.ErrorIs(t, solver.NewCaseInsensitive("x", nil, 0).Begin([]*query.Iterator{a.Reverse()}), solver.ErrArgument)
	require.ErrorIs(t, solver.NewNestedLoop(nil, 0).Begin([]*query.Iterator{v, a.Reverse()}), solver.ErrArgument)
	require.NoError(t, solver.NewNestedLoop(nil, 0).Begin([]*query.Iterator{v, a}))
}

func TestScanRejectsMixedDirections(t *testing.T) {
	db := openDB(t)
	err := scan.Scan(context.Background(), db,
		[]*query.Iterator{where(t, "color", "=", "spots"), where(t, "legs", "=", 4).Reverse()},
		solver.NewSortedMerge(nil, 0))
	require.ErrorIs(t, err, solver.ErrArgument)
}

func ExampleSortedMerge() {
	s := solver.NewSortedMerge(solver.SinkFunc(func(k key.Key) error {
		fmt.Println("match", k)
		return nil
	}), 0)
	_ = s.Begin([]*query.Iterator{query.NewKeyIterator("a", nil), query.NewKeyIterator("b", nil)})

	adv, _ := s.Solve([]key.Key{"ant", "bee"}, []any{"ant", "bee"})
	fmt.Println(adv)
	adv, _ = s.Solve([]key.Key{"bee", "bee"}, []any{"bee", "bee"})
	fmt.Println(adv)
	// Output:
	// [seekPrimary(bee) continue]
	// match bee
	// [advance advance]
}
