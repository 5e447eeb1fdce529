package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cortexa-labs/cortexa-backend/internal/config"
	"github.com/cortexa-labs/cortexa-backend/internal/db"
	"github.com/cortexa-labs/cortexa-backend/internal/filestore"
	"github.com/cortexa-labs/cortexa-backend/internal/handlers"
	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/observability"
	"github.com/cortexa-labs/cortexa-backend/internal/repos"
	"github.com/cortexa-labs/cortexa-backend/internal/server"
	"github.com/cortexa-labs/cortexa-backend/internal/services"
	"github.com/cortexa-labs/cortexa-backend/internal/vectorstore"
	"github.com/cortexa-labs/cortexa-backend/internal/workerpool"
	"github.com/cortexa-labs/cortexa-backend/internal/ws"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "cortexa-backend",
		Environment: logMode,
	})
	if otelShutdown != nil {
		defer func() { _ = otelShutdown(context.Background()) }()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	assistantRepo := repos.NewAssistantRepo(thePG, log)
	knowledgeRepo := repos.NewKnowledgeRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)

	// Storage
	vectorManager := vectorstore.NewManager(log, cfg.VectorStoreDir)
	fileStore := filestore.NewFileStore(log, cfg.UploadDir)

	// Workers + sessions
	pool := workerpool.New(log, cfg.WorkerConcurrency)
	hub := ws.NewHub(log)

	// Services
	log.Info("Setting up Services from main...")
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	knowledgeService := services.NewKnowledgeService(log, knowledgeRepo, fileStore, vectorManager, openaiClient, chunker)
	answerService := services.NewAnswerService(log, assistantRepo, vectorManager, openaiClient, cfg.RetrievalK)
	conversationService := services.NewConversationService(log, assistantRepo, conversationRepo, messageRepo)
	chatService := services.NewChatService(log, conversationService, answerService, pool)

	// Handlers
	log.Info("Setting up handlers from main...")
	knowledgeHandler := handlers.NewKnowledgeHandler(knowledgeService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	embedHandler := handlers.NewEmbedHandler(assistantRepo)
	chatHandler := handlers.NewChatHandler(log, hub, assistantRepo, conversationService, chatService, cfg.FrameGapMillis)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:                 log,
		CORSOrigins:         cfg.CORSOrigins,
		KnowledgeHandler:    knowledgeHandler,
		ConversationHandler: conversationHandler,
		EmbedHandler:        embedHandler,
		ChatHandler:         chatHandler,
	})

	fmt.Printf("Server listening on :%s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
