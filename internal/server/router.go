package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/cortexa-labs/cortexa-backend/internal/handlers"
	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/middleware"
)

type RouterConfig struct {
	Log                 *logger.Logger
	CORSOrigins         []string
	KnowledgeHandler    *handlers.KnowledgeHandler
	ConversationHandler *handlers.ConversationHandler
	EmbedHandler        *handlers.EmbedHandler
	ChatHandler         *handlers.ChatHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(otelgin.Middleware("cortexa-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Knowledge base
		assistant := api.Group("/assistant/:assistant_id")
		assistant.POST("/upload", cfg.KnowledgeHandler.Upload)
		assistant.GET("/knowledge", cfg.KnowledgeHandler.List)
		assistant.GET("/knowledge/:id/content", cfg.KnowledgeHandler.GetContent)
		assistant.PUT("/knowledge/:id", cfg.KnowledgeHandler.UpdateContent)
		assistant.DELETE("/knowledge/:id", cfg.KnowledgeHandler.Delete)
		assistant.GET("/vector-status", cfg.KnowledgeHandler.VectorStatus)
		assistant.GET("/conversations", cfg.ConversationHandler.ListByAssistant)

		// Conversations
		api.POST("/conversation", cfg.ConversationHandler.Create)
		api.GET("/conversation/:id/messages", cfg.ConversationHandler.Messages)
		api.POST("/conversation/:id/finalize", cfg.ConversationHandler.Finalize)

		// Widget bootstrap
		api.GET("/embed/:assistant_id/config", cfg.EmbedHandler.Config)
	}

	// Chat sessions
	router.GET("/ws/assistant/:assistant_id/:customer_id", cfg.ChatHandler.Connect)

	return router
}
