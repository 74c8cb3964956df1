package domain

// WebSocket message types from client.
const (
	MsgTypeJoin        = "join"
	MsgTypeSend        = "send"
	MsgTypeTypingStart = "typingStart"
	MsgTypeTypingStop  = "typingStop"
)

// WebSocket message types to client.
const (
	MsgTypeJoined          = "joined"
	MsgTypeMessageReceived = "messageReceived"
	MsgTypeTypingState     = "typingState"
	MsgTypeSendError       = "sendError"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type JoinEvent struct {
	Type               string `json:"type"`
	OtherParticipantID string `json:"otherParticipantId"`
}

type SendEvent struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiverId"`
	Body       string `json:"body"`
}

type TypingEvent struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiverId"`
}

// Server -> Client messages

type JoinedEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

type MessageReceivedEvent struct {
	Type string `json:"type"`
	EnrichedMessage
}

type TypingStateEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	IsTyping      bool   `json:"isTyping"`
}

type SendErrorEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewMessageReceivedEvent(m EnrichedMessage) *MessageReceivedEvent {
	return &MessageReceivedEvent{Type: MsgTypeMessageReceived, EnrichedMessage: m}
}

func NewTypingStateEvent(participantID, displayName string, isTyping bool) *TypingStateEvent {
	return &TypingStateEvent{
		Type:          MsgTypeTypingState,
		ParticipantID: participantID,
		DisplayName:   displayName,
		IsTyping:      isTyping,
	}
}

func NewSendErrorEvent(reason string) *SendErrorEvent {
	return &SendErrorEvent{Type: MsgTypeSendError, Reason: reason}
}
