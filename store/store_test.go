package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/memdb"
	"github.com/dacapoday/zigzag/schema"
	"github.com/dacapoday/zigzag/store"
)

const animalSchema = `
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
  - name: notes
    autoIncrement: true
    keyPath: id
    indexes:
      - name: tags
        keyPath: tags
        multiEntry: true
      - name: slug
        keyPath: slug
        unique: true
`

type animal struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Legs  int    `json:"legs"`
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

func openAnimals(t *testing.T) *store.DB {
	t.Helper()
	s, err := schema.Parse([]byte(animalSchema))
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
		return nil
	}))
	return db
}

func mustRange(r *key.Range, err error) *key.Range {
	if err != nil {
		panic(err)
	}
	return r
}

// walk opens a cursor over scope and returns its reported effective and
// primary keys.
func walk(t *testing.T, tx *store.Tx, scope store.Scope) (keys, pks []key.Key) {
	t.Helper()
	c, err := tx.Cursor(scope)
	require.NoError(t, err)
	defer c.Close()
	for err = c.Open(nil, nil, false); err == nil && !c.Done(); err = c.Advance(1) {
		keys = append(keys, c.Key())
		pks = append(pks, c.PrimaryKey())
	}
	require.NoError(t, err)
	return
}

func TestPutGet(t *testing.T) {
	db := openAnimals(t)
	require.NoError(t, db.View(func(tx *store.Tx) error {
		v, err := tx.Get("animals", "cow")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "cow", "color": "spots", "legs": float64(4)}, v)

		_, err = tx.Get("animals", "horse")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = tx.Put("animals", animal{Name: "horse"})
		require.ErrorIs(t, err, store.ErrReadOnly)
		return nil
	}))
}

func TestCount(t *testing.T) {
	db := openAnimals(t)
	require.NoError(t, db.View(func(tx *store.Tx) error {
		n, err := tx.Count("animals", "", nil)
		require.NoError(t, err)
		require.Equal(t, 7, n)

		n, err = tx.Count("animals", "legs", mustRange(key.Only(4)))
		require.NoError(t, err)
		require.Equal(t, 4, n)

		_, err = tx.Count("animals", "wings", nil)
		require.ErrorIs(t, err, store.ErrNotFound)
		return nil
	}))
}

func TestDeleteMaintainsIndexes(t *testing.T) {
	db := openAnimals(t)
	require.NoError(t, db.Update(func(tx *store.Tx) error {
		require.NoError(t, tx.Delete("animals", "cow"))
		require.NoError(t, tx.Delete("animals", "horse"))

		_, pks := walk(t, tx, store.Scope{Store: "animals", Index: "color", Range: mustRange(key.Only("spots"))})
		require.Equal(t, []key.Key{"cat", "snake"}, pks)

		_, err := tx.PutKey("animals", map[string]any{"name": "cow", "color": "black", "legs": 4}, "cow")
		require.NoError(t, err)
		_, err = tx.PutKey("animals", map[string]any{"name": "cow"}, "ox")
		require.ErrorIs(t, err, store.ErrArgument)
		return nil
	}))
	require.NoError(t, db.View(func(tx *store.Tx) error {
		_, pks := walk(t, tx, store.Scope{Store: "animals", Index: "color", Range: mustRange(key.Only("black"))})
		require.Equal(t, []key.Key{"cow", "ox"}, pks)
		return nil
	}))
}

func TestAutoIncrementUniqueMultiEntry(t *testing.T) {
	db := openAnimals(t)
	require.NoError(t, db.Update(func(tx *store.Tx) error {
		pk, err := tx.Put("notes", map[string]any{"slug": "a", "tags": []string{"x", "y", "x"}})
		require.NoError(t, err)
		require.Equal(t, float64(1), pk)

		pk, err = tx.Put("notes", map[string]any{"id": 10, "slug": "b", "tags": []string{"y"}})
		require.NoError(t, err)
		require.Equal(t, float64(10), pk)

		pk, err = tx.Put("notes", map[string]any{"slug": "c"})
		require.NoError(t, err)
		require.Equal(t, float64(11), pk)

		_, err = tx.Put("notes", map[string]any{"slug": "a"})
		require.ErrorIs(t, err, store.ErrConstraint)

		// rewriting the owner of a unique key is allowed
		_, err = tx.PutKey("notes", map[string]any{"slug": "a", "tags": []string{"z"}}, 1)
		require.NoError(t, err)

		v, err := tx.Get("notes", 11)
		require.NoError(t, err)
		require.Equal(t, float64(11), v.(map[string]any)["id"])

		keys, pks := walk(t, tx, store.Scope{Store: "notes", Index: "tags"})
		require.Equal(t, []key.Key{"y", "z"}, keys)
		require.Equal(t, []key.Key{float64(10), float64(1)}, pks)
		return nil
	}))
}

func TestClearStore(t *testing.T) {
	db := openAnimals(t)
	require.NoError(t, db.Update(func(tx *store.Tx) error {
		return tx.ClearStore("animals")
	}))
	require.NoError(t, db.View(func(tx *store.Tx) error {
		for _, index := range []string{"", "color", "legs", "color_name"} {
			n, err := tx.Count("animals", index, nil)
			require.NoError(t, err)
			require.Zero(t, n, index)
		}
		return nil
	}))
}

func TestUpdateRollsBack(t *testing.T) {
	db := openAnimals(t)
	err := db.Update(func(tx *store.Tx) error {
		require.NoError(t, tx.Delete("animals", "rat"))
		return store.ErrInternal
	})
	require.ErrorIs(t, err, store.ErrInternal)
	require.NoError(t, db.View(func(tx *store.Tx) error {
		_, err := tx.Get("animals", "rat")
		return err
	}))
}

func TestClosedDB(t *testing.T) {
	db := openAnimals(t)
	require.NoError(t, db.Close())
	_, err := db.Begin(false)
	require.ErrorIs(t, err, store.ErrClosed)
}
