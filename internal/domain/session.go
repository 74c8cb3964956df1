package domain

import (
	"sync"
	"time"
)

// Session is one authenticated live connection. Sessions exist only in
// memory; they are created after a successful handshake and destroyed on
// disconnect, never persisted.
type Session struct {
	ID            string
	ParticipantID string
	DisplayName   string
	Email         string
	CreatedAt     time.Time
	LastActiveAt  time.Time

	joined map[string]struct{}
	mu     sync.RWMutex
}

// NewSession creates a session bound to an authenticated participant.
func NewSession(id string, p Participant) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		Email:         p.Email,
		CreatedAt:     now,
		LastActiveAt:  now,
		joined:        make(map[string]struct{}),
	}
}

// Join records membership in a conversation channel. Returns false when the
// session was already joined; joining twice has no further effect.
func (s *Session) Join(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.joined[conversationID]; ok {
		return false
	}
	s.joined[conversationID] = struct{}{}
	s.LastActiveAt = time.Now()
	return true
}

// Leave removes membership in a conversation channel.
func (s *Session) Leave(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joined, conversationID)
	s.LastActiveAt = time.Now()
}

// IsJoined reports whether the session is joined to the conversation.
func (s *Session) IsJoined(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.joined[conversationID]
	return ok
}

// Conversations returns a snapshot of the joined conversation ids.
func (s *Session) Conversations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.joined))
	for id := range s.joined {
		out = append(out, id)
	}
	return out
}

// UpdateActivity refreshes the last-active timestamp.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
