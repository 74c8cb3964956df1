package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/nakshtra/chat-service/internal/domain"
)

// MemoryMessageRepository is an in-memory MessageRepository for tests and
// standalone development.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string][]domain.Message // conversation id -> messages, insertion order
}

// NewMemoryMessageRepository creates an empty in-memory repository.
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		messages: make(map[string][]domain.Message),
	}
}

// Save persists the message in memory.
func (r *MemoryMessageRepository) Save(ctx context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg)
	return nil
}

// History returns the limit most recent messages ascending.
func (r *MemoryMessageRepository) History(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[conversationID]
	sorted := make([]domain.Message, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[len(sorted)-limit:]
	}
	return sorted, nil
}
