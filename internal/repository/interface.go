package repository

import (
	"context"

	"github.com/nakshtra/chat-service/internal/domain"
)

// MessageRepository is the durable store contract for messages. The store
// is the sole source of truth for history; callers never cache messages
// beyond a single request.
type MessageRepository interface {
	// Save persists the message. The message is immutable once saved.
	Save(ctx context.Context, msg domain.Message) error

	// History returns at most limit of the conversation's most recent
	// messages, in ascending CreatedAt order (ties broken by id).
	History(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
}
