package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/services"
)

type ConversationHandler struct {
	conversationService services.ConversationService
}

func NewConversationHandler(conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

type createConversationRequest struct {
	AssistantID   uuid.UUID `json:"assistant_id" binding:"required"`
	CustomerID    string    `json:"customer_id" binding:"required"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
}

func (ch *ConversationHandler) Create(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	conversation, err := ch.conversationService.Create(c.Request.Context(), req.AssistantID, req.CustomerID, req.CustomerName, req.CustomerEmail)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conversation})
}

func (ch *ConversationHandler) Messages(c *gin.Context) {
	conversationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	messages, err := ch.conversationService.Messages(c.Request.Context(), conversationID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": messages})
}

func (ch *ConversationHandler) Finalize(c *gin.Context) {
	conversationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	conversation, err := ch.conversationService.Finalize(c.Request.Context(), conversationID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conversation})
}

func (ch *ConversationHandler) ListByAssistant(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}
	conversations, err := ch.conversationService.ListByAssistant(c.Request.Context(), assistantID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversations": conversations})
}
