package types

import (
	"time"

	"github.com/google/uuid"
)

// Assistant is a configured chatbot persona. The engine only reads the
// config columns (language, messages, prompt templates); they are owned by
// the management UI.
type Assistant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"assistant_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Status      bool      `gorm:"not null;default:true" json:"status"`

	Language          string `gorm:"column:language" json:"language"`
	MessageWelcome    string `gorm:"column:message_welcome;type:text" json:"message_welcome"`
	MessageNoIdea     string `gorm:"column:message_noidea;type:text" json:"message_noidea"`
	PromptNoContext   string `gorm:"column:prompt_no_context;type:text" json:"prompt_no_context"`
	PromptWithContext string `gorm:"column:prompt_with_context;type:text" json:"prompt_with_context"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Assistant) TableName() string { return "assistant" }

// AssistantConfig is the read contract handed to the embeddable chat widget.
type AssistantConfig struct {
	Language          string `json:"language"`
	MessageWelcome    string `json:"message_welcome"`
	MessageNoIdea     string `json:"message_noidea"`
	PromptNoContext   string `json:"prompt_no_context"`
	PromptWithContext string `json:"prompt_with_context"`
}

func (a *Assistant) Config() AssistantConfig {
	return AssistantConfig{
		Language:          a.Language,
		MessageWelcome:    a.MessageWelcome,
		MessageNoIdea:     a.MessageNoIdea,
		PromptNoContext:   a.PromptNoContext,
		PromptWithContext: a.PromptWithContext,
	}
}
