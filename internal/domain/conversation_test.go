package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveConversationCommutative(t *testing.T) {
	ab, err := ResolveConversation("alice", "bob")
	require.NoError(t, err)
	ba, err := ResolveConversation("bob", "alice")
	require.NoError(t, err)

	require.Equal(t, ab, ba)
	require.Equal(t, "alice-bob", ab)
}

func TestResolveConversationInvalidPairs(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"self pair", "alice", "alice"},
		{"empty first", "", "bob"},
		{"empty second", "alice", ""},
		{"both empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveConversation(tc.a, tc.b)
			require.ErrorIs(t, err, ErrInvalidPair)
		})
	}
}

func TestResolveConversationOrdersLexicographically(t *testing.T) {
	id, err := ResolveConversation("zara", "adam")
	require.NoError(t, err)
	require.Equal(t, "adam-zara", id)
}
