package repository

import (
	"fmt"

	"gorm.io/gorm"

	"chatty-backend/internal/model"
)

type UsageRecordRepository struct {
	db *gorm.DB
}

func NewUsageRecordRepository(db *gorm.DB) *UsageRecordRepository {
	return &UsageRecordRepository{db: db}
}

func (r *UsageRecordRepository) Create(record *model.UsageRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("create usage record failed: %w", err)
	}
	return nil
}

func (r *UsageRecordRepository) ListByUserID(userID uint, limit int) ([]model.UsageRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var records []model.UsageRecord
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list usage records failed: %w", err)
	}
	return records, nil
}
