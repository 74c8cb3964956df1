package domain

import "time"

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"`
	ConversationID string    `gorm:"type:varchar(80);index;not null"`
	SenderID       string    `gorm:"type:varchar(36);not null"`
	ReceiverID     string    `gorm:"type:varchar(36);not null"`
	Body           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index;not null"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to a domain Message.
func (m *MessageModel) ToDomain() Message {
	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}

// MessageToModel converts a domain Message to MessageModel.
func MessageToModel(m Message) *MessageModel {
	return &MessageModel{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}

// UserModel is the GORM model for the users table. The table is owned by the
// wider application; this service reads it as its user directory.
type UserModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	DisplayName string    `gorm:"type:varchar(100);not null"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to a domain Participant.
func (m *UserModel) ToDomain() Participant {
	return Participant{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
	}
}
