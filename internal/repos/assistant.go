package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
)

type AssistantRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assistant *types.Assistant) (*types.Assistant, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assistant, error)
}

type assistantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssistantRepo(db *gorm.DB, baseLog *logger.Logger) AssistantRepo {
	return &assistantRepo{db: db, log: baseLog.With("repo", "AssistantRepo")}
}

func (r *assistantRepo) Create(ctx context.Context, tx *gorm.DB, assistant *types.Assistant) (*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(assistant).Error; err != nil {
		return nil, err
	}
	return assistant, nil
}

func (r *assistantRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Assistant
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
