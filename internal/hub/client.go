package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nakshtra/chat-service/internal/config"
	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/pkg/log"
)

// Client is the hub-side handle for one live connection. The client id
// doubles as the session id.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *domain.Session
	config  config.WebSocketConfig
}

// NewClient creates a client for an authenticated participant.
func NewClient(id string, h *Hub, conn *websocket.Conn, p domain.Participant, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:      id,
		Hub:     h,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Session: domain.NewSession(id, p),
		config:  cfg,
	}
}

// ReadPump reads inbound frames and dispatches them to onMessage. It exits
// on connection error; onClose then runs exactly once, before the session
// is removed from the hub.
func (c *Client) ReadPump(onMessage func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		onClose(c)
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldSessionID, c.ID).Msg("websocket read error")
			}
			break
		}

		c.Session.UpdateActivity()
		onMessage(c, message)
	}
}

// WritePump drains the send queue onto the connection and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent marshals an event onto the client's send queue. A full queue
// drops the event; the pump's ping cycle will surface a dead connection.
func (c *Client) SendEvent(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
	default:
	}
	return nil
}
