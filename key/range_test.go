package key

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestBoundContains(t *testing.T) {
	r, err := Bound(2, 5, false, false)
	require.NoError(t, err)
	require.True(t, r.Contains(2))
	require.True(t, r.Contains(5))
	require.True(t, r.Contains(3.5))
	require.False(t, r.Contains(1))
	require.False(t, r.Contains(6))
	require.False(t, r.Contains("3"))

	r, err = Bound(2, 5, true, false)
	require.NoError(t, err)
	require.False(t, r.Contains(2))
	require.True(t, r.Contains(5))

	r, err = Bound(2, 5, false, true)
	require.NoError(t, err)
	require.True(t, r.Contains(2))
	require.False(t, r.Contains(5))
}

func TestInvalidRange(t *testing.T) {
	_, err := Bound(5, 2, false, false)
	require.True(t, errors.Is(err, ErrInvalidRange))

	_, err = Bound(2, 2, true, false)
	require.True(t, errors.Is(err, ErrInvalidRange))

	_, err = Only(map[string]int{})
	require.True(t, errors.Is(err, ErrArgument))

	_, err = Where("~", 1)
	require.True(t, errors.Is(err, ErrArgument))

	_, err = Between("<", 1, "<", 2)
	require.True(t, errors.Is(err, ErrArgument))
}

func TestOnly(t *testing.T) {
	r, err := Only([]any{"spots", 4})
	require.NoError(t, err)
	require.True(t, r.Contains([]any{"spots", 4.0}))
	require.False(t, r.Contains([]any{"spots", 4, "x"}))
	require.Equal(t, 2, r.PrefixLen())
}

func TestStarts(t *testing.T) {
	r, err := Starts([]any{"spots"})
	require.NoError(t, err)
	require.True(t, r.Contains([]any{"spots"}))
	require.True(t, r.Contains([]any{"spots", "cat"}))
	require.False(t, r.Contains([]any{"spotsy", "cat"}))
	require.False(t, r.Contains([]any{"gold", "galon"}))
	require.Equal(t, 1, r.PrefixLen())
	require.Equal(t, -1, r.Locate([]any{"black", "ox"}))
	require.Equal(t, 1, r.Locate([]any{"zebra"}))

	r, err = Starts("ca")
	require.NoError(t, err)
	require.True(t, r.Contains("cat"))
	require.True(t, r.Contains("ca"))
	require.False(t, r.Contains("cow"))
	require.Equal(t, 0, r.PrefixLen())

	r, err = Starts(4)
	require.NoError(t, err)
	require.True(t, r.Contains(4))
	require.False(t, r.Contains(5))
}

func TestWhere(t *testing.T) {
	cases := []struct {
		op  string
		in  []Key
		out []Key
	}{
		{"=", []Key{3}, []Key{2, 4}},
		{"<", []Key{2}, []Key{3, 4}},
		{"<=", []Key{2, 3}, []Key{4}},
		{">", []Key{4}, []Key{2, 3}},
		{">=", []Key{3, 4}, []Key{2}},
	}
	for _, c := range cases {
		r, err := Where(c.op, 3)
		require.NoError(t, err, c.op)
		for _, k := range c.in {
			require.True(t, r.Contains(k), "%s %v", c.op, k)
		}
		for _, k := range c.out {
			require.False(t, r.Contains(k), "%s %v", c.op, k)
		}
	}

	r, err := Between(">", 1, "<=", 3)
	require.NoError(t, err)
	require.False(t, r.Contains(1))
	require.True(t, r.Contains(3))
	require.Equal(t, "(1, 3]", r.String())
}

func TestNilRange(t *testing.T) {
	var r *Range
	require.True(t, r.Contains("anything"))
	require.Nil(t, r.LowerBytes())
	require.Nil(t, r.UpperBytes())
	require.Equal(t, 0, r.PrefixLen())
}
