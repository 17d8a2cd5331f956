package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalSmall(t *testing.T) {
	b, err := Marshal(map[string]any{"name": "cat", "legs": 4})
	require.NoError(t, err)
	require.Equal(t, formatJSON, b[0])

	v, err := Unmarshal(b)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "cat", "legs": 4.0}, v)
}

func TestMarshalCompressed(t *testing.T) {
	note := strings.Repeat("spots ", 200)
	b, err := Marshal(map[string]any{"note": note})
	require.NoError(t, err)
	require.Equal(t, formatSnappy, b[0])
	require.Less(t, len(b), len(note))

	var got struct {
		Note string `json:"note"`
	}
	require.NoError(t, UnmarshalInto(b, &got))
	require.Equal(t, note, got.Note)
}

func TestUnmarshalBad(t *testing.T) {
	_, err := Unmarshal(nil)
	require.Error(t, err)
	_, err = Unmarshal([]byte{'x', '1'})
	require.Error(t, err)
	_, err = Unmarshal([]byte{formatSnappy, 0xff, 0xff})
	require.Error(t, err)
}
