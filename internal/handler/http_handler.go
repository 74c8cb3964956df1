package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/internal/service"
	"github.com/nakshtra/chat-service/pkg/log"
	"github.com/nakshtra/chat-service/pkg/response"
)

// ChatHandler serves the REST side of the chat API: the participant roster
// and conversation transcripts.
type ChatHandler struct {
	service service.ChatService
}

// NewChatHandler creates the REST handler.
func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// ListUsers returns every addressable participant except the caller, with
// online flags.
func (h *ChatHandler) ListUsers(c *gin.Context) {
	participantID := c.GetString(ContextParticipantID)

	users, err := h.service.Participants(c.Request.Context(), participantID)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to list participants")
		response.InternalError(c, "failed to list users")
		return
	}

	response.Success(c, gin.H{"users": users})
}

// GetHistory returns the transcript between the caller and the participant
// named in the path, ascending, capped at the configured limit.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	participantID := c.GetString(ContextParticipantID)
	otherID := c.Param("user_id")

	messages, err := h.service.History(c.Request.Context(), participantID, otherID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPair) {
			response.BadRequest(c, "invalid conversation participants")
			return
		}
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to load history")
		response.InternalError(c, "failed to load history")
		return
	}

	response.Success(c, gin.H{"messages": messages})
}

// Health reports process liveness.
func (h *ChatHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
