package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Save persists the message.
func (r *GormMessageRepository) Save(ctx context.Context, msg domain.Message) error {
	l := log.Ctx(ctx)

	model := domain.MessageToModel(msg)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldConversationID, msg.ConversationID).Msg("failed to persist message")
		return fmt.Errorf("persist message: %w", err)
	}

	l.Debug().Str(log.FieldMessageID, msg.ID).Str(log.FieldConversationID, msg.ConversationID).Msg("message persisted")
	return nil
}

// History returns the limit most recent messages of the conversation in
// ascending order. The newest rows are selected descending and reversed.
func (r *GormMessageRepository) History(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("failed to load history")
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]domain.Message, len(models))
	for i, model := range models {
		messages[len(models)-1-i] = model.ToDomain()
	}
	return messages, nil
}
