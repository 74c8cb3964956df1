package hub

import (
	"encoding/json"
	"sync"

	"github.com/nakshtra/chat-service/pkg/log"
)

// PrivateChannel returns the per-participant channel every session is
// subscribed to on registration, reserved for targeted delivery such as
// multi-device notifications.
func PrivateChannel(participantID string) string {
	return "user:" + participantID
}

// Hub owns the in-process channel roster: which sessions are joined to
// which conversation channels. The roster is mutated only through the hub's
// operations; other components hold a reference and call Join/Leave/Members.
// Membership is not shared across processes; running multiple instances
// requires an external broadcast layer, which this service does not provide.
type Hub struct {
	clients    map[string]*Client            // session id -> client
	channels   map[string]map[string]*Client // channel -> session id -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *channelMessage
	mu         sync.RWMutex
}

type channelMessage struct {
	Channel string
	Data    []byte
	Exclude string // session id to exclude
}

// NewHub creates an empty hub. Call Run in its own goroutine before use.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		channels:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *channelMessage, 256),
	}
}

// Run processes registration, unregistration, and broadcast events.
// Broadcasts are delivered in the order they were enqueued, so within one
// conversation delivery order equals persistence-completion order.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.joinLocked(client, PrivateChannel(client.Session.ParticipantID))
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldSessionID, client.ID).Msg("session registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for channel, members := range h.channels {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.channels, channel)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldSessionID, client.ID).Msg("session unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for sessionID, client := range h.channels[msg.Channel] {
				if sessionID == msg.Exclude {
					continue
				}
				select {
				case client.Send <- msg.Data:
				default:
					// Slow consumer; drop the connection rather than block fan-out.
					go h.Unregister(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a session to the hub and subscribes it to its private
// per-participant channel.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a session from the hub and from every channel it was
// joined to, and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join adds a session to a channel's roster. Idempotent: joining an already
// joined channel has no further effect.
func (h *Hub) Join(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(client, channel)
}

func (h *Hub) joinLocked(client *Client, channel string) {
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[string]*Client)
	}
	h.channels[channel][client.ID] = client
}

// Leave removes a session from a channel's roster.
func (h *Hub) Leave(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.channels[channel]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Members returns a read-only snapshot of the session ids joined to a
// channel at this instant.
func (h *Hub) Members(channel string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.channels[channel]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// Broadcast marshals the event and enqueues delivery to every session
// joined to the channel when the broadcast is processed, except the one
// identified by exclude (empty string excludes no one).
func (h *Hub) Broadcast(channel string, event interface{}, exclude string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.broadcast <- &channelMessage{
		Channel: channel,
		Data:    data,
		Exclude: exclude,
	}
	return nil
}
