package key

import (
	"bytes"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func sampleKeys() []Key {
	t0 := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	return []Key{
		-1e300, -5.5, -1.0, 0.0, 0.5, 1.0, 2.0, 3.0, 1e300,
		t0.Add(-time.Hour), t0, t0.Add(time.Nanosecond),
		"", "\x00", "\x00\x01", "a", "a\x00", "a\x00b", "ab", "abc", "b", "z", "é",
		[]any{}, []any{1.0}, []any{1.0, 2.0}, []any{1.0, 3.0}, []any{2.0},
		[]any{"a"}, []any{"a", "b"}, []any{[]any{}}, []any{[]any{1.0}},
	}
}

func TestCompareTotalOrder(t *testing.T) {
	keys := sampleKeys()
	for i, a := range keys {
		require.Equal(t, 0, Compare(a, a), "reflexive %v", a)
		for j, b := range keys {
			c := Compare(a, b)
			require.Equal(t, -c, Compare(b, a), "antisymmetric %v %v", a, b)
			// sampleKeys is listed in ascending order
			switch {
			case i < j:
				require.Equal(t, -1, c, "%v < %v", a, b)
			case i > j:
				require.Equal(t, 1, c, "%v > %v", a, b)
			}
		}
	}
	for range 1000 {
		a := keys[rand.IntN(len(keys))]
		b := keys[rand.IntN(len(keys))]
		c := keys[rand.IntN(len(keys))]
		if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
			require.LessOrEqual(t, Compare(a, c), 0, "transitive %v %v %v", a, b, c)
		}
	}
}

func TestCompareArrays(t *testing.T) {
	require.Equal(t, -1, Compare([]any{1, 2}, []any{1, 3}))
	require.Equal(t, -1, Compare([]any{1}, []any{1, 2}))
	require.Equal(t, 0, Compare([]int{4, 2}, []any{4.0, 2.0}))
	require.Equal(t, -1, Compare([]string{"cat"}, []string{"cow"}))
}

func TestCompareMixedNumbers(t *testing.T) {
	require.Equal(t, 0, Compare(3, 3.0))
	require.Equal(t, -1, Compare(int64(2), uint8(3)))
	require.Equal(t, 0, Compare(0.0, -0.0))
}

func TestNormalize(t *testing.T) {
	k, err := Normalize([]int{1, 2})
	require.NoError(t, err)
	require.Equal(t, []any{1.0, 2.0}, k)

	_, err = Normalize(map[string]any{})
	require.True(t, errors.Is(err, ErrArgument))

	_, err = Normalize([]any{1, true})
	require.True(t, errors.Is(err, ErrArgument))

	require.False(t, Valid(nil))
	require.False(t, Equal(nil, nil))
	require.False(t, Equal(map[string]any{}, 1))
	require.True(t, Equal(1, 1.0))
}

func TestEncodeOrder(t *testing.T) {
	keys := sampleKeys()
	for _, a := range keys {
		ea := Encode(a)
		for _, b := range keys {
			require.Equal(t, Compare(a, b), bytes.Compare(ea, Encode(b)), "%v vs %v", a, b)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, k := range sampleKeys() {
		got, err := Decode(Encode(k))
		require.NoError(t, err)
		require.Equal(t, 0, Compare(k, got), "%v", k)
	}
}

func TestDecodeOneConcatenated(t *testing.T) {
	b := AppendEncode(Encode([]any{"spots", "cat"}), "cat")
	ik, rest, err := DecodeOne(b)
	require.NoError(t, err)
	require.Equal(t, []any{"spots", "cat"}, ik)
	pk, err := Decode(rest)
	require.NoError(t, err)
	require.Equal(t, "cat", pk)

	_, err = Decode([]byte{0x30, 'a'})
	require.Error(t, err)
	_, err = Decode([]byte{0x99})
	require.Error(t, err)
}

func TestPrefixSuccessor(t *testing.T) {
	p := Successor(EncodePrefix([]any{"spots"}))
	require.Less(t, bytes.Compare(Encode([]any{"spots"}), p), 0)
	require.Less(t, bytes.Compare(Encode([]any{"spots", "zebra", 9}), p), 0)
	require.Greater(t, bytes.Compare(Encode([]any{"spotsy"}), p), 0)

	s := Successor(EncodePrefix("ab"))
	require.Less(t, bytes.Compare(Encode("ab\x00z"), s), 0)
	require.Less(t, bytes.Compare(Encode("abzzz"), s), 0)
	require.Greater(t, bytes.Compare(Encode("ac"), s), 0)
}
