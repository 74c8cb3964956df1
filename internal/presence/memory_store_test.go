package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConnectDisconnect(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Connect(ctx, "alice"))

	online, err := store.Online(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	require.True(t, online["alice"])
	require.False(t, online["bob"])

	require.NoError(t, store.Disconnect(ctx, "alice"))

	online, err = store.Online(ctx, []string{"alice"})
	require.NoError(t, err)
	require.False(t, online["alice"])
}

func TestMemoryStoreCountsMultipleConnections(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Two devices for the same participant; one disconnect keeps them online.
	require.NoError(t, store.Connect(ctx, "alice"))
	require.NoError(t, store.Connect(ctx, "alice"))
	require.NoError(t, store.Disconnect(ctx, "alice"))

	online, err := store.Online(ctx, []string{"alice"})
	require.NoError(t, err)
	require.True(t, online["alice"])

	require.NoError(t, store.Disconnect(ctx, "alice"))
	online, err = store.Online(ctx, []string{"alice"})
	require.NoError(t, err)
	require.False(t, online["alice"])
}
