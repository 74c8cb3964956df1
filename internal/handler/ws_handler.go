package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nakshtra/chat-service/internal/audit"
	"github.com/nakshtra/chat-service/internal/auth"
	"github.com/nakshtra/chat-service/internal/config"
	"github.com/nakshtra/chat-service/internal/directory"
	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/internal/hub"
	"github.com/nakshtra/chat-service/internal/presence"
	"github.com/nakshtra/chat-service/internal/service"
	"github.com/nakshtra/chat-service/pkg/log"
)

// WSHandler is the connection gateway: it authenticates the handshake,
// registers the session with the hub, and pumps frames to the chat service.
type WSHandler struct {
	hub       *hub.Hub
	service   service.ChatService
	verifier  auth.Verifier
	directory directory.Directory
	presence  presence.Store
	wsConfig  config.WebSocketConfig
	upgrader  websocket.Upgrader
}

// NewWSHandler creates the WebSocket gateway.
func NewWSHandler(
	h *hub.Hub,
	svc service.ChatService,
	verifier auth.Verifier,
	dir directory.Directory,
	pres presence.Store,
	wsCfg config.WebSocketConfig,
) *WSHandler {
	return &WSHandler{
		hub:       h,
		service:   svc,
		verifier:  verifier,
		directory: dir,
		presence:  pres,
		wsConfig:  wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin enforcement belongs to the fronting proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket upgrades the connection and runs the session until the
// socket closes. Authentication failures close the socket with a policy
// violation frame carrying the reason, so the client can tell a rejected
// credential from a network error.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	credential := extractCredential(c)
	participantID, err := h.verifier.Verify(c.Request.Context(), credential)
	if err != nil {
		audit.Log(c.Request.Context(), audit.ActionAuthFailed, "", "websocket handshake rejected")
		h.closeWithReason(conn, err)
		return
	}

	participant, err := h.directory.Get(c.Request.Context(), participantID)
	if err != nil {
		if !errors.Is(err, directory.ErrParticipantNotFound) {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldParticipantID, participantID).Msg("directory lookup failed at handshake")
		}
		participant = domain.Participant{ID: participantID}
	}

	client := hub.NewClient(uuid.NewString(), h.hub, conn, participant, h.wsConfig)
	h.hub.Register(client)

	ctx := h.sessionContext(client)
	if err := h.presence.Connect(ctx, participantID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to record presence")
	}
	audit.Log(ctx, audit.ActionConnect, participantID, "session connected")

	go client.WritePump()
	client.ReadPump(h.onMessage, h.onClose)
}

// sessionContext builds the long-lived context a session's events are
// handled under. Connection identity travels in the logger, not in values.
func (h *WSHandler) sessionContext(client *hub.Client) context.Context {
	logger := log.L().With().
		Str(log.FieldSessionID, client.ID).
		Str(log.FieldParticipantID, client.Session.ParticipantID).
		Logger()
	return log.WithLogger(context.Background(), logger)
}

func (h *WSHandler) onMessage(client *hub.Client, raw []byte) {
	ctx := h.sessionContext(client)

	var base domain.BaseMessage
	if err := json.Unmarshal(raw, &base); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Msg("dropping malformed frame")
		return
	}

	switch base.Type {
	case domain.MsgTypeJoin:
		var evt domain.JoinEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		if err := h.service.HandleJoin(ctx, client, evt.OtherParticipantID); err != nil {
			l := log.Ctx(ctx)
			l.Error().Err(err).Msg("join failed")
		}

	case domain.MsgTypeSend:
		var evt domain.SendEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		if err := h.service.HandleSend(ctx, client, evt.ReceiverID, evt.Body); err != nil {
			l := log.Ctx(ctx)
			l.Error().Err(err).Msg("send failed")
		}

	case domain.MsgTypeTypingStart, domain.MsgTypeTypingStop:
		var evt domain.TypingEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		h.service.HandleTyping(ctx, client, evt.ReceiverID, base.Type == domain.MsgTypeTypingStart)

	default:
		l := log.Ctx(ctx)
		l.Debug().Str("message_type", base.Type).Msg("dropping unknown frame type")
	}
}

func (h *WSHandler) onClose(client *hub.Client) {
	ctx := h.sessionContext(client)

	h.service.HandleDisconnect(ctx, client)
	if err := h.presence.Disconnect(ctx, client.Session.ParticipantID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to clear presence")
	}
}

func (h *WSHandler) closeWithReason(conn *websocket.Conn, err error) {
	reason := "invalid credential"
	if errors.Is(err, auth.ErrMissingCredential) {
		reason = "missing credential"
	} else if errors.Is(err, auth.ErrExpiredCredential) {
		reason = "credential has expired"
	}

	deadline := time.Now().Add(h.wsConfig.WriteWait)
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	conn.WriteControl(websocket.CloseMessage, msg, deadline)
	conn.Close()
}

// extractCredential reads the bearer credential from the token query
// parameter, falling back to the Authorization header. Browsers cannot set
// headers on WebSocket handshakes, so the query parameter is primary.
func extractCredential(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
