package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nakshtra/chat-service/internal/audit"
	"github.com/nakshtra/chat-service/internal/directory"
	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/internal/hub"
	"github.com/nakshtra/chat-service/internal/presence"
	"github.com/nakshtra/chat-service/internal/repository"
	"github.com/nakshtra/chat-service/pkg/log"
)

// Reasons surfaced to the sender via sendError.
const (
	reasonEmptyBody   = "message body is empty"
	reasonSelfMessage = "cannot start a conversation with yourself"
	reasonPersistence = "failed to send message"
)

type chatService struct {
	hub          *hub.Hub
	repo         repository.MessageRepository
	directory    directory.Directory
	presence     presence.Store
	historyLimit int
}

// NewChatService wires the messaging core together. historyLimit caps
// History results; zero or negative falls back to 100.
func NewChatService(
	h *hub.Hub,
	repo repository.MessageRepository,
	dir directory.Directory,
	pres presence.Store,
	historyLimit int,
) ChatService {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &chatService{
		hub:          h,
		repo:         repo,
		directory:    dir,
		presence:     pres,
		historyLimit: historyLimit,
	}
}

func (s *chatService) HandleJoin(ctx context.Context, c *hub.Client, otherParticipantID string) error {
	conversationID, err := domain.ResolveConversation(c.Session.ParticipantID, otherParticipantID)
	if err != nil {
		return c.SendEvent(domain.NewSendErrorEvent(reasonSelfMessage))
	}

	s.hub.Join(c, conversationID)
	c.Session.Join(conversationID)

	audit.LogWithDetail(ctx, audit.ActionJoin, c.Session.ParticipantID, conversationID, "joined conversation")

	return c.SendEvent(&domain.JoinedEvent{
		Type:           domain.MsgTypeJoined,
		ConversationID: conversationID,
	})
}

func (s *chatService) HandleSend(ctx context.Context, c *hub.Client, receiverID, body string) error {
	if err := domain.ValidateBody(body); err != nil {
		return c.SendEvent(domain.NewSendErrorEvent(reasonEmptyBody))
	}

	conversationID, err := domain.ResolveConversation(c.Session.ParticipantID, receiverID)
	if err != nil {
		return c.SendEvent(domain.NewSendErrorEvent(reasonSelfMessage))
	}

	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       c.Session.ParticipantID,
		ReceiverID:     receiverID,
		Body:           body,
		CreatedAt:      time.Now().UTC(),
	}

	// Fan-out is strictly gated on persistence: nothing is delivered for a
	// message the store did not accept.
	if err := s.repo.Save(ctx, msg); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("message persistence failed")
		return c.SendEvent(domain.NewSendErrorEvent(reasonPersistence))
	}

	enriched := domain.Enrich(msg, s.profile(ctx, msg.SenderID), s.profile(ctx, msg.ReceiverID))

	if err := s.hub.Broadcast(conversationID, domain.NewMessageReceivedEvent(enriched), ""); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("fan-out failed")
	}

	audit.LogWithDetail(ctx, audit.ActionSendMessage, c.Session.ParticipantID, conversationID, "message sent")
	return nil
}

func (s *chatService) HandleTyping(ctx context.Context, c *hub.Client, receiverID string, isTyping bool) {
	conversationID, err := domain.ResolveConversation(c.Session.ParticipantID, receiverID)
	if err != nil {
		return
	}

	// Best-effort: a failed typing broadcast must never disturb messaging.
	event := domain.NewTypingStateEvent(c.Session.ParticipantID, c.Session.DisplayName, isTyping)
	if err := s.hub.Broadcast(conversationID, event, c.ID); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str(log.FieldConversationID, conversationID).Msg("typing broadcast dropped")
	}
}

func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	// Peers must never be left with a stuck typing indicator: synthesize a
	// typing-stop for every conversation the session was joined to.
	event := domain.NewTypingStateEvent(c.Session.ParticipantID, c.Session.DisplayName, false)
	for _, conversationID := range c.Session.Conversations() {
		if err := s.hub.Broadcast(conversationID, event, c.ID); err != nil {
			l := log.Ctx(ctx)
			l.Debug().Err(err).Str(log.FieldConversationID, conversationID).Msg("typing cleanup dropped")
		}
	}

	audit.Log(ctx, audit.ActionDisconnect, c.Session.ParticipantID, "session disconnected")
}

func (s *chatService) History(ctx context.Context, participantID, otherParticipantID string) ([]domain.EnrichedMessage, error) {
	conversationID, err := domain.ResolveConversation(participantID, otherParticipantID)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.History(ctx, conversationID, s.historyLimit)
	if err != nil {
		return nil, err
	}

	// Both profiles are stable across the transcript; look them up once.
	profiles := map[string]domain.Participant{
		participantID:      s.profile(ctx, participantID),
		otherParticipantID: s.profile(ctx, otherParticipantID),
	}

	enriched := make([]domain.EnrichedMessage, len(messages))
	for i, msg := range messages {
		enriched[i] = domain.Enrich(msg, profiles[msg.SenderID], profiles[msg.ReceiverID])
	}
	return enriched, nil
}

func (s *chatService) Participants(ctx context.Context, excludeID string) ([]domain.ParticipantStatus, error) {
	participants, err := s.directory.List(ctx, excludeID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}

	online, err := s.presence.Online(ctx, ids)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("presence lookup failed, reporting all offline")
		online = map[string]bool{}
	}

	out := make([]domain.ParticipantStatus, len(participants))
	for i, p := range participants {
		out[i] = domain.ParticipantStatus{Participant: p, Online: online[p.ID]}
	}
	return out, nil
}

// profile resolves a participant's directory entry, falling back to a bare
// id when the directory cannot answer. Enrichment is display-only and must
// not fail a delivery.
func (s *chatService) profile(ctx context.Context, participantID string) domain.Participant {
	p, err := s.directory.Get(ctx, participantID)
	if err != nil {
		if !errors.Is(err, directory.ErrParticipantNotFound) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldParticipantID, participantID).Msg("profile lookup failed")
		}
		return domain.Participant{ID: participantID}
	}
	return p
}
