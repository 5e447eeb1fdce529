package types

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is one customer's session with one assistant. Finalization is
// a terminal flag, never a deletion.
type Conversation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	AssistantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"assistant_id"`
	CustomerID    string     `gorm:"not null" json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	Completed     bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	Messages []Message `gorm:"foreignKey:ConversationID;references:ID" json:"messages,omitempty"`
}

func (Conversation) TableName() string { return "conversation" }
