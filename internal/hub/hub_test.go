package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nakshtra/chat-service/internal/config"
	"github.com/nakshtra/chat-service/internal/domain"
)

func testClient(h *Hub, sessionID, participantID string) *Client {
	return NewClient(sessionID, h, nil, domain.Participant{ID: participantID}, config.WebSocketConfig{})
}

func registerAndWait(t *testing.T, h *Hub, c *Client) {
	t.Helper()
	h.Register(c)
	require.Eventually(t, func() bool {
		return len(h.Members(PrivateChannel(c.Session.ParticipantID))) > 0
	}, time.Second, 5*time.Millisecond)
}

func recvEvent(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.Send:
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func requireNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected event: %s", raw)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRegisterJoinsPrivateChannel(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := testClient(h, "sess-1", "alice")
	registerAndWait(t, h, c)

	require.NoError(t, h.Broadcast(PrivateChannel("alice"), domain.NewSendErrorEvent("test"), ""))

	evt := recvEvent(t, c)
	require.Equal(t, domain.MsgTypeSendError, evt["type"])
}

func TestHubJoinIdempotentSingleDelivery(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := testClient(h, "sess-1", "alice")
	registerAndWait(t, h, c)

	h.Join(c, "alice-bob")
	h.Join(c, "alice-bob")

	require.NoError(t, h.Broadcast("alice-bob", domain.NewTypingStateEvent("bob", "Bob", true), ""))

	evt := recvEvent(t, c)
	require.Equal(t, domain.MsgTypeTypingState, evt["type"])
	requireNoEvent(t, c)
}

func TestHubBroadcastExcludesSession(t *testing.T) {
	h := NewHub()
	go h.Run()

	sender := testClient(h, "sess-1", "alice")
	receiver := testClient(h, "sess-2", "bob")
	registerAndWait(t, h, sender)
	registerAndWait(t, h, receiver)

	h.Join(sender, "alice-bob")
	h.Join(receiver, "alice-bob")

	require.NoError(t, h.Broadcast("alice-bob", domain.NewTypingStateEvent("alice", "Alice", true), sender.ID))

	evt := recvEvent(t, receiver)
	require.Equal(t, domain.MsgTypeTypingState, evt["type"])
	require.Equal(t, "alice", evt["participantId"])
	requireNoEvent(t, sender)
}

func TestHubBroadcastReachesAllMembers(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := testClient(h, "sess-1", "alice")
	b := testClient(h, "sess-2", "bob")
	registerAndWait(t, h, a)
	registerAndWait(t, h, b)

	h.Join(a, "alice-bob")
	h.Join(b, "alice-bob")

	require.NoError(t, h.Broadcast("alice-bob", domain.NewSendErrorEvent("x"), ""))

	recvEvent(t, a)
	recvEvent(t, b)
}

func TestHubUnregisterRemovesMembership(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := testClient(h, "sess-1", "alice")
	registerAndWait(t, h, c)
	h.Join(c, "alice-bob")

	h.Unregister(c)
	require.Eventually(t, func() bool {
		return len(h.Members("alice-bob")) == 0
	}, time.Second, 5*time.Millisecond)

	require.Empty(t, h.Members(PrivateChannel("alice")))

	// Send is closed on unregister.
	_, open := <-c.Send
	require.False(t, open)
}

func TestHubMembersSnapshot(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := testClient(h, "sess-1", "alice")
	b := testClient(h, "sess-2", "bob")
	registerAndWait(t, h, a)
	registerAndWait(t, h, b)

	h.Join(a, "alice-bob")
	h.Join(b, "alice-bob")

	require.ElementsMatch(t, []string{"sess-1", "sess-2"}, h.Members("alice-bob"))
}
