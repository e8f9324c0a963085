package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"pdfchat/internal/model"
)

type EvaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

func (r *EvaluationRepository) Record(ctx context.Context, rec model.EvaluationRecord) error {
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create evaluation failed: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) ListRecent(ctx context.Context, limit int) ([]model.EvaluationRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var list []model.EvaluationRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list evaluations failed: %w", err)
	}
	return list, nil
}
