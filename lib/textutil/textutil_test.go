package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("  Contact  Info ", []string{"contactinfo"}))
	require.False(t, MatchName("Jane Doe", []string{"contactinfo", "connections"}))
}

func TestSplitFirst(t *testing.T) {
	table := []struct {
		input  string
		before string
		after  string
		ok     bool
	}{
		{input: "Engineer at Acme, Inc | Speaker", before: "Engineer", after: "Acme, Inc | Speaker", ok: true},
		{input: "Founder, Acme | Builder", before: "Founder", after: "Acme | Builder", ok: true},
		{input: "Builder | Acme", before: "Builder", after: "Acme", ok: true},
		{input: "Designer", before: "Designer", after: "", ok: false},
	}

	for _, row := range table {
		before, after, ok := SplitFirst(row.input, " at ", ",", "|")
		require.Equal(t, row.before, before, row.input)
		require.Equal(t, row.after, after, row.input)
		require.Equal(t, row.ok, ok, row.input)
	}
}

func TestBefore(t *testing.T) {
	require.Equal(t, "Acme", Before("Acme · Full-time", "·"))
	require.Equal(t, "Acme", Before(" Acme ", "·"))
}
