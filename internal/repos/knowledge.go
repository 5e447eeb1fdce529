package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
)

type KnowledgeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.KnowledgeRecord) (*types.KnowledgeRecord, error)
	Update(ctx context.Context, tx *gorm.DB, record *types.KnowledgeRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, assistantID, id uuid.UUID) (*types.KnowledgeRecord, error)
	GetByFileName(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID, fileName string) (*types.KnowledgeRecord, error)
	ListByAssistant(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID) ([]*types.KnowledgeRecord, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, assistantID, id uuid.UUID) error
}

type knowledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeRepo {
	return &knowledgeRepo{db: db, log: baseLog.With("repo", "KnowledgeRepo")}
}

func (r *knowledgeRepo) Create(ctx context.Context, tx *gorm.DB, record *types.KnowledgeRecord) (*types.KnowledgeRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *knowledgeRepo) Update(ctx context.Context, tx *gorm.DB, record *types.KnowledgeRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(record).Error
}

func (r *knowledgeRepo) GetByID(ctx context.Context, tx *gorm.DB, assistantID, id uuid.UUID) (*types.KnowledgeRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.KnowledgeRecord
	if err := transaction.WithContext(ctx).
		Where("id = ? AND assistant_id = ?", id, assistantID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *knowledgeRepo) GetByFileName(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID, fileName string) (*types.KnowledgeRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.KnowledgeRecord
	if err := transaction.WithContext(ctx).
		Where("assistant_id = ? AND file_name = ?", assistantID, fileName).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *knowledgeRepo) ListByAssistant(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID) ([]*types.KnowledgeRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.KnowledgeRecord
	if err := transaction.WithContext(ctx).
		Where("assistant_id = ?", assistantID).
		Order("upload_date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *knowledgeRepo) DeleteByID(ctx context.Context, tx *gorm.DB, assistantID, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ? AND assistant_id = ?", id, assistantID).
		Delete(&types.KnowledgeRecord{}).Error
}
