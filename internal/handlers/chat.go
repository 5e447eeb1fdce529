package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/repos"
	"github.com/cortexa-labs/cortexa-backend/internal/services"
	"github.com/cortexa-labs/cortexa-backend/internal/ws"
)

// ChatHandler upgrades widget connections and runs their session loops.
type ChatHandler struct {
	log                 *logger.Logger
	hub                 *ws.Hub
	assistants          repos.AssistantRepo
	conversationService services.ConversationService
	chatService         services.ChatService
	frameGap            time.Duration
	upgrader            websocket.Upgrader
}

func NewChatHandler(
	log *logger.Logger,
	hub *ws.Hub,
	assistants repos.AssistantRepo,
	conversationService services.ConversationService,
	chatService services.ChatService,
	frameGapMillis int,
) *ChatHandler {
	return &ChatHandler{
		log:                 log.With("handler", "ChatHandler"),
		hub:                 hub,
		assistants:          assistants,
		conversationService: conversationService,
		chatService:         chatService,
		frameGap:            time.Duration(frameGapMillis) * time.Millisecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Widget embeds run on arbitrary customer origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Connect opens a session for (assistant, customer). A fresh conversation row
// backs every connect; the session reuses it for all turns.
func (chh *ChatHandler) Connect(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}
	customerID := c.Param("customer_id")
	if customerID == "" {
		RespondError(c, http.StatusBadRequest, "missing_customer_id", nil)
		return
	}

	assistant, err := chh.assistants.GetByID(c.Request.Context(), nil, assistantID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if assistant == nil {
		RespondServiceError(c, services.ErrAssistantNotFound)
		return
	}

	conversation, err := chh.conversationService.Create(
		c.Request.Context(),
		assistantID,
		customerID,
		c.Query("customer_name"),
		c.Query("customer_email"),
	)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	conn, err := chh.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		chh.log.Warn("Websocket upgrade failed", "assistant_id", assistantID, "error", err)
		return
	}

	session := ws.NewSession(
		chh.log,
		chh.hub,
		conn,
		chh.chatService,
		conversation,
		assistant.MessageWelcome,
		chh.frameGap,
	)
	// Run blocks for the life of the connection; returning from the handler
	// would cancel the request context under the session.
	session.Run(c.Request.Context())
}
