package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/pkg/log"
)

const defaultTypingIdle = time.Second

// Config holds the connection settings for a chat session.
type Config struct {
	// ServerURL is the WebSocket endpoint, e.g. ws://localhost:5000/ws/chat.
	ServerURL string
	// APIBaseURL is the REST base, e.g. http://localhost:5000.
	APIBaseURL string
	// Token is the bearer credential presented at the handshake and on REST
	// calls.
	Token string
	// SelfID is the authenticated participant's id, used to recognize
	// confirmations of the session's own sends.
	SelfID string
	// Profile is the local participant's directory entry, used for
	// optimistic display before the server confirms a send.
	Profile domain.Participant
	// TypingIdle is how long after the last keystroke the composing state is
	// cleared. Defaults to one second.
	TypingIdle time.Duration
}

// Handlers receives the session's server-pushed events. Nil handlers are
// skipped. Handlers run on the read loop goroutine and must not block.
type Handlers struct {
	OnMessage   func(conversationID string, entry Entry)
	OnTyping    func(event domain.TypingStateEvent)
	OnJoined    func(conversationID string)
	OnSendError func(reason string)
}

type pendingRef struct {
	conversationID string
	tempID         string
}

// Controller drives one authenticated chat session: it owns the socket,
// keeps per-conversation transcripts, reconciles optimistic sends, and
// debounces typing signals.
type Controller struct {
	cfg      Config
	handlers Handlers
	http     *http.Client

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu          sync.Mutex
	transcripts map[string]*Transcript
	pending     []pendingRef
	typingTimer map[string]*time.Timer
	typingOn    map[string]bool

	done chan struct{}
}

// New creates a controller. Call Connect before any other operation.
func New(cfg Config, handlers Handlers) *Controller {
	if cfg.TypingIdle <= 0 {
		cfg.TypingIdle = defaultTypingIdle
	}
	if cfg.Profile.ID == "" {
		cfg.Profile.ID = cfg.SelfID
	}
	return &Controller{
		cfg:         cfg,
		handlers:    handlers,
		http:        &http.Client{Timeout: 10 * time.Second},
		transcripts: make(map[string]*Transcript),
		typingTimer: make(map[string]*time.Timer),
		typingOn:    make(map[string]bool),
		done:        make(chan struct{}),
	}
}

// Connect dials the server and starts the read loop.
func (c *Controller) Connect(ctx context.Context) error {
	url := fmt.Sprintf("%s?token=%s", c.cfg.ServerURL, c.cfg.Token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("dial chat server: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	c.conn = conn
	go c.readLoop()
	return nil
}

// OpenConversation loads the transcript with the other participant and then
// joins the conversation's live channel. History is fetched before joining
// so every message lands exactly once: older ones from history, newer ones
// live, overlaps removed by id.
func (c *Controller) OpenConversation(ctx context.Context, otherParticipantID string) (string, error) {
	conversationID, err := domain.ResolveConversation(c.cfg.SelfID, otherParticipantID)
	if err != nil {
		return "", err
	}

	history, err := c.fetchHistory(ctx, otherParticipantID)
	if err != nil {
		return "", err
	}
	c.transcript(conversationID).Seed(history)

	if err := c.writeJSON(domain.JoinEvent{
		Type:               domain.MsgTypeJoin,
		OtherParticipantID: otherParticipantID,
	}); err != nil {
		return "", err
	}
	return conversationID, nil
}

// Send transmits a message and records it optimistically under a temporary
// id until the server's confirmation replaces it. An active composing state
// for the conversation is cleared first.
func (c *Controller) Send(otherParticipantID, body string) error {
	if err := domain.ValidateBody(body); err != nil {
		return err
	}
	conversationID, err := domain.ResolveConversation(c.cfg.SelfID, otherParticipantID)
	if err != nil {
		return err
	}

	c.stopTyping(conversationID, otherParticipantID)

	tempID := "temp-" + uuid.NewString()
	receiver := domain.Participant{ID: otherParticipantID}
	c.transcript(conversationID).AppendPending(tempID, conversationID, body, c.cfg.Profile, receiver)

	c.mu.Lock()
	c.pending = append(c.pending, pendingRef{conversationID: conversationID, tempID: tempID})
	c.mu.Unlock()

	return c.writeJSON(domain.SendEvent{
		Type:       domain.MsgTypeSend,
		ReceiverID: otherParticipantID,
		Body:       body,
	})
}

// Typing reports one keystroke. The first pulse starts the composing state;
// the state is cleared after TypingIdle without further pulses.
func (c *Controller) Typing(otherParticipantID string) error {
	conversationID, err := domain.ResolveConversation(c.cfg.SelfID, otherParticipantID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	start := !c.typingOn[conversationID]
	c.typingOn[conversationID] = true
	if timer, ok := c.typingTimer[conversationID]; ok {
		timer.Stop()
	}
	c.typingTimer[conversationID] = time.AfterFunc(c.cfg.TypingIdle, func() {
		c.stopTyping(conversationID, otherParticipantID)
	})
	c.mu.Unlock()

	if start {
		return c.writeJSON(domain.TypingEvent{
			Type:       domain.MsgTypeTypingStart,
			ReceiverID: otherParticipantID,
		})
	}
	return nil
}

func (c *Controller) stopTyping(conversationID, otherParticipantID string) {
	c.mu.Lock()
	active := c.typingOn[conversationID]
	delete(c.typingOn, conversationID)
	if timer, ok := c.typingTimer[conversationID]; ok {
		timer.Stop()
		delete(c.typingTimer, conversationID)
	}
	c.mu.Unlock()

	if !active {
		return
	}
	if err := c.writeJSON(domain.TypingEvent{
		Type:       domain.MsgTypeTypingStop,
		ReceiverID: otherParticipantID,
	}); err != nil {
		l := log.L()
		l.Debug().Err(err).Msg("failed to clear composing state")
	}
}

// Transcript returns the current entries of a conversation in display order.
func (c *Controller) Transcript(conversationID string) []Entry {
	return c.transcript(conversationID).Entries()
}

// Close shuts the session down. Safe to call once.
func (c *Controller) Close() error {
	close(c.done)
	if c.conn == nil {
		return nil
	}
	c.writeMu.Lock()
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Controller) transcript(conversationID string) *Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.transcripts[conversationID]
	if !ok {
		t = newTranscript(c.cfg.SelfID)
		c.transcripts[conversationID] = t
	}
	return t
}

func (c *Controller) writeJSON(v interface{}) error {
	if c.conn == nil {
		return errors.New("not connected")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Controller) readLoop() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				l := log.L()
				l.Debug().Err(err).Msg("chat session closed")
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Controller) dispatch(raw []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(raw, &base); err != nil {
		return
	}

	switch base.Type {
	case domain.MsgTypeMessageReceived:
		var evt domain.MessageReceivedEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		c.applyMessage(evt.EnrichedMessage)

	case domain.MsgTypeTypingState:
		var evt domain.TypingStateEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		if c.handlers.OnTyping != nil {
			c.handlers.OnTyping(evt)
		}

	case domain.MsgTypeJoined:
		var evt domain.JoinedEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		if c.handlers.OnJoined != nil {
			c.handlers.OnJoined(evt.ConversationID)
		}

	case domain.MsgTypeSendError:
		var evt domain.SendErrorEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		c.rollbackOldestPending()
		if c.handlers.OnSendError != nil {
			c.handlers.OnSendError(evt.Reason)
		}
	}
}

func (c *Controller) applyMessage(m domain.EnrichedMessage) {
	applied, replacedTempID := c.transcript(m.ConversationID).Apply(m)
	if !applied {
		return
	}
	if replacedTempID != "" {
		c.retirePending(replacedTempID)
	}
	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(m.ConversationID, Entry{EnrichedMessage: m})
	}
}

// rollbackOldestPending removes the optimistic entry for the oldest
// unconfirmed send. sendError carries no message id, and the server reports
// failures in submission order.
func (c *Controller) rollbackOldestPending() {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	ref := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()

	c.transcript(ref.conversationID).Remove(ref.tempID)
}

func (c *Controller) retirePending(tempID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ref := range c.pending {
		if ref.tempID == tempID {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

func (c *Controller) fetchHistory(ctx context.Context, otherParticipantID string) ([]domain.EnrichedMessage, error) {
	url := fmt.Sprintf("%s/api/v1/chat/history/%s", c.cfg.APIBaseURL, otherParticipantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch history: status %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Messages []domain.EnrichedMessage `json:"messages"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return envelope.Data.Messages, nil
}
