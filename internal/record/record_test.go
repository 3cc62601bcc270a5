package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("H->E")
	require.NoError(t, err)
	require.Equal(t, DirHostToEquipment, d)

	d, err = ParseDirection("E->H")
	require.NoError(t, err)
	require.Equal(t, DirEquipmentToHost, d)

	_, err = ParseDirection("h->e")
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, InvalidDirection, kind)

	_, err = ParseDirection("")
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	cases := []string{
		"2024-01-02T03:04:05.123456789Z",
		"2024-01-02T03:04:05Z",
		"2024-01-02T03:04:05.5",
		"2024-01-02T03:04:05-07:00",
	}
	for _, c := range cases {
		_, err := ParseTimestamp(c)
		require.NoError(t, err, c)
	}

	_, err := ParseTimestamp("not-a-timestamp")
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, InvalidTimestamp, kind)
}

func TestErrorFormatting(t *testing.T) {
	e := NewPosError(ParseJson, 4, "unexpected token", nil)
	require.Contains(t, e.Error(), "parse_json")
	require.Contains(t, e.Error(), "4")
}
