package service

import (
	"context"

	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/internal/hub"
)

// ChatService coordinates the messaging core: ordered persistence with
// live fan-out, typing relay, and conversation history.
type ChatService interface {
	// HandleJoin subscribes the session to the conversation with the other
	// participant. Idempotent.
	HandleJoin(ctx context.Context, client *hub.Client, otherParticipantID string) error

	// HandleSend validates, persists, enriches, and fans out one message.
	// Errors are reported to the sending session only.
	HandleSend(ctx context.Context, client *hub.Client, receiverID, body string) error

	// HandleTyping relays a composing-state change to the conversation's
	// other members. Best-effort: never returns an error.
	HandleTyping(ctx context.Context, client *hub.Client, receiverID string, isTyping bool)

	// HandleDisconnect runs the disconnect side effects: a synthesized
	// typing-stop for every joined conversation. Called exactly once, before
	// the session leaves the hub.
	HandleDisconnect(ctx context.Context, client *hub.Client)

	// History returns the enriched transcript between two participants,
	// ascending, capped at the configured limit.
	History(ctx context.Context, participantID, otherParticipantID string) ([]domain.EnrichedMessage, error)

	// Participants lists every addressable participant except the caller,
	// with a best-effort online flag.
	Participants(ctx context.Context, excludeID string) ([]domain.ParticipantStatus, error)
}
