package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cortexa-labs/cortexa-backend/internal/repos"
	"github.com/cortexa-labs/cortexa-backend/internal/services"
)

// EmbedHandler serves the read-only config the embeddable chat widget needs
// to boot.
type EmbedHandler struct {
	assistants repos.AssistantRepo
}

func NewEmbedHandler(assistants repos.AssistantRepo) *EmbedHandler {
	return &EmbedHandler{assistants: assistants}
}

func (eh *EmbedHandler) Config(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}
	assistant, err := eh.assistants.GetByID(c.Request.Context(), nil, assistantID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if assistant == nil {
		RespondServiceError(c, services.ErrAssistantNotFound)
		return
	}
	cfg := assistant.Config()
	RespondOK(c, gin.H{
		"assistant_id":    assistant.ID,
		"name":            assistant.Name,
		"status":          assistant.Status,
		"language":        cfg.Language,
		"message_welcome": cfg.MessageWelcome,
		"message_noidea":  cfg.MessageNoIdea,
	})
}
