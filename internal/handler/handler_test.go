package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/nakshtra/chat-service/internal/auth"
	"github.com/nakshtra/chat-service/internal/config"
	"github.com/nakshtra/chat-service/internal/directory"
	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/internal/hub"
	"github.com/nakshtra/chat-service/internal/presence"
	"github.com/nakshtra/chat-service/internal/repository"
	"github.com/nakshtra/chat-service/internal/service"
)

type testServer struct {
	srv      *httptest.Server
	verifier *auth.JWTVerifier
	repo     repository.MessageRepository
	pres     *presence.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}

	verifier := auth.NewJWTVerifier("test-secret", "test")
	repo := repository.NewMemoryMessageRepository()
	dir := directory.NewMemoryDirectory(
		domain.Participant{ID: "alice", DisplayName: "Alice", Email: "alice@example.com"},
		domain.Participant{ID: "bob", DisplayName: "Bob", Email: "bob@example.com"},
	)
	pres := presence.NewMemoryStore()

	h := hub.NewHub()
	go h.Run()

	svc := service.NewChatService(h, repo, dir, pres, 100)
	wsHandler := NewWSHandler(h, svc, verifier, dir, pres, wsCfg)
	chatHandler := NewChatHandler(svc)

	router := gin.New()
	router.GET("/ws/chat", wsHandler.HandleWebSocket)
	api := router.Group("/api/v1/chat", AuthMiddleware(verifier))
	api.GET("/users", chatHandler.ListUsers)
	api.GET("/history/:user_id", chatHandler.GetHistory)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, verifier: verifier, repo: repo, pres: pres}
}

func (ts *testServer) wsURL(token string) string {
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws/chat"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func (ts *testServer) token(t *testing.T, participantID string) string {
	t.Helper()
	token, err := ts.verifier.Issue(participantID, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) dial(t *testing.T, participantID string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(ts.token(t, participantID)), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestWebSocketRejectsMissingCredential(t *testing.T) {
	ts := newTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(""), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))

	closeErr := err.(*websocket.CloseError)
	require.Equal(t, "missing credential", closeErr.Text)
}

func TestWebSocketRejectsInvalidCredential(t *testing.T) {
	ts := newTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL("garbage"), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestWebSocketJoinAndSendFlow(t *testing.T) {
	ts := newTestServer(t)

	alice := ts.dial(t, "alice")
	bob := ts.dial(t, "bob")

	require.NoError(t, alice.WriteJSON(domain.JoinEvent{Type: domain.MsgTypeJoin, OtherParticipantID: "bob"}))
	joined := readEvent(t, alice)
	require.Equal(t, domain.MsgTypeJoined, joined["type"])
	require.Equal(t, "alice-bob", joined["conversationId"])

	require.NoError(t, bob.WriteJSON(domain.JoinEvent{Type: domain.MsgTypeJoin, OtherParticipantID: "alice"}))
	readEvent(t, bob)

	require.NoError(t, alice.WriteJSON(domain.SendEvent{Type: domain.MsgTypeSend, ReceiverID: "bob", Body: "hello"}))

	got := readEvent(t, bob)
	require.Equal(t, domain.MsgTypeMessageReceived, got["type"])
	require.Equal(t, "hello", got["body"])
	require.Equal(t, "alice", got["sender"].(map[string]interface{})["id"])

	echo := readEvent(t, alice)
	require.Equal(t, got["id"], echo["id"])

	history, err := ts.repo.History(context.Background(), "alice-bob", 100)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestWebSocketTypingRelay(t *testing.T) {
	ts := newTestServer(t)

	alice := ts.dial(t, "alice")
	bob := ts.dial(t, "bob")

	require.NoError(t, alice.WriteJSON(domain.JoinEvent{Type: domain.MsgTypeJoin, OtherParticipantID: "bob"}))
	readEvent(t, alice)
	require.NoError(t, bob.WriteJSON(domain.JoinEvent{Type: domain.MsgTypeJoin, OtherParticipantID: "alice"}))
	readEvent(t, bob)

	require.NoError(t, alice.WriteJSON(domain.TypingEvent{Type: domain.MsgTypeTypingStart, ReceiverID: "bob"}))

	evt := readEvent(t, bob)
	require.Equal(t, domain.MsgTypeTypingState, evt["type"])
	require.Equal(t, "alice", evt["participantId"])
	require.Equal(t, true, evt["isTyping"])
}

func TestWebSocketConnectRecordsPresence(t *testing.T) {
	ts := newTestServer(t)

	ts.dial(t, "alice")

	require.Eventually(t, func() bool {
		online, err := ts.pres.Online(context.Background(), []string{"alice"})
		return err == nil && online["alice"]
	}, time.Second, 10*time.Millisecond)
}

func TestListUsersRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/v1/chat/users")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListUsersExcludesCaller(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/v1/chat/users", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.token(t, "alice"))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Users []domain.ParticipantStatus `json:"users"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.Len(t, envelope.Data.Users, 1)
	require.Equal(t, "bob", envelope.Data.Users[0].ID)
}

func TestGetHistoryReturnsTranscript(t *testing.T) {
	ts := newTestServer(t)

	require.NoError(t, ts.repo.Save(context.Background(), domain.Message{
		ID: "m1", ConversationID: "alice-bob", SenderID: "bob", ReceiverID: "alice",
		Body: "hi", CreatedAt: time.Now().UTC(),
	}))

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/v1/chat/history/bob", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.token(t, "alice"))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Messages []domain.EnrichedMessage `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Len(t, envelope.Data.Messages, 1)
	require.Equal(t, "hi", envelope.Data.Messages[0].Body)
	require.Equal(t, "Bob", envelope.Data.Messages[0].Sender.DisplayName)
}

func TestGetHistoryRejectsSelf(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/v1/chat/history/alice", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.token(t, "alice"))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
