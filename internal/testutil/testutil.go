package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
)

func Logger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

// DB opens a fresh in-memory database with all engine tables migrated. Each
// call gets its own database, so tests stay independent.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.Assistant{},
		&types.KnowledgeRecord{},
		&types.Conversation{},
		&types.Message{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedAssistant inserts a minimal assistant row and returns it.
func SeedAssistant(t *testing.T, db *gorm.DB) *types.Assistant {
	t.Helper()
	assistant := &types.Assistant{
		ID:                uuid.New(),
		Name:              "Support Bot",
		Status:            true,
		Language:          "English",
		MessageWelcome:    "Hello! How can I help?",
		MessageNoIdea:     "Sorry, I have no answer for that.",
		PromptNoContext:   "Answer in $language: $data",
		PromptWithContext: "Answer in $language using context:\n$context\nQuestion: $data",
	}
	if err := db.Create(assistant).Error; err != nil {
		t.Fatalf("seed assistant: %v", err)
	}
	return assistant
}
