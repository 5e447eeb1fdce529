package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	SenderCustomer  = "customer"
	SenderAssistant = "assistant"
)

// Message belongs to exactly one Conversation and is append-only.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Sender         string    `gorm:"not null" json:"sender"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Timestamp      time.Time `gorm:"not null;index" json:"timestamp"`
}

func (Message) TableName() string { return "message" }
