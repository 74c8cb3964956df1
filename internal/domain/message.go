package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyBody is returned when a message body is empty after trimming.
var ErrEmptyBody = errors.New("message body is empty")

// Participant is the minimal profile of an addressable user. Profiles are
// owned by the user directory; this service never mutates them.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// ParticipantStatus is a directory entry enriched with live presence.
type ParticipantStatus struct {
	Participant
	Online bool `json:"online"`
}

// Message is one persisted direct message. Messages are immutable once
// written; total order within a conversation is CreatedAt ascending with
// ties broken by id.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ValidateBody rejects bodies that are empty after trimming. The trimmed
// body is not persisted; the original text is kept verbatim.
func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	return nil
}

// EnrichedMessage is a persisted message joined with the sender and
// receiver profiles for client display. The profiles are looked up at
// delivery time and never persisted alongside the message.
type EnrichedMessage struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	Body           string      `json:"body"`
	Sender         Participant `json:"sender"`
	Receiver       Participant `json:"receiver"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Enrich joins a message with its sender and receiver profiles.
func Enrich(m Message, sender, receiver Participant) EnrichedMessage {
	return EnrichedMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Body:           m.Body,
		Sender:         sender,
		Receiver:       receiver,
		CreatedAt:      m.CreatedAt,
	}
}
