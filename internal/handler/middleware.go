package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nakshtra/chat-service/internal/auth"
	"github.com/nakshtra/chat-service/pkg/response"
)

// ContextParticipantID is the gin context key the auth middleware stores the
// authenticated participant id under.
const ContextParticipantID = "participant_id"

// AuthMiddleware verifies the Authorization bearer credential and stores the
// resolved participant id in the request context.
func AuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing credential")
			c.Abort()
			return
		}

		participantID, err := verifier.Verify(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(ContextParticipantID, participantID)
		c.Next()
	}
}
