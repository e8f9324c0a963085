package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"pdfchat/internal/model"
)

// DocumentRepository is the ledger of index runs.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// RecordRun stores rec as the only active document of its collection.
func (r *DocumentRepository) RecordRun(ctx context.Context, rec *model.DocumentRecord) error {
	rec.Active = true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.DocumentRecord{}).
			Where("collection = ? AND active = ?", rec.Collection, true).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return fmt.Errorf("record document run failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, limit int) ([]model.DocumentRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []model.DocumentRecord
	if err := r.db.WithContext(ctx).Order("indexed_at DESC, id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}
