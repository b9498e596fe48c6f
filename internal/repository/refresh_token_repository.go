package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatty-backend/internal/model"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(token *model.RefreshToken) error {
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("create refresh token failed: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByToken(token string) (*model.RefreshToken, error) {
	var stored model.RefreshToken
	if err := r.db.Where("token = ?", token).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query refresh token failed: %w", err)
	}
	return &stored, nil
}

func (r *RefreshTokenRepository) DeleteByToken(token string) error {
	if err := r.db.Where("token = ?", token).Delete(&model.RefreshToken{}).Error; err != nil {
		return fmt.Errorf("delete refresh token failed: %w", err)
	}
	return nil
}

// DeleteExpired removes every stored refresh token that expired before the
// given instant and reports how many rows went away.
func (r *RefreshTokenRepository) DeleteExpired(before time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", before).Delete(&model.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *RefreshTokenRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.RefreshToken{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count refresh tokens failed: %w", err)
	}
	return count, nil
}
