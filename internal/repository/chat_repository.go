package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatty-backend/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(chat *model.Chat) error {
	if err := r.db.Create(chat).Error; err != nil {
		return fmt.Errorf("create chat failed: %w", err)
	}
	return nil
}

// ListByUserID returns the caller's chats, most recently active first.
func (r *ChatRepository) ListByUserID(userID uint, limit int) ([]model.Chat, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var chats []model.Chat
	if err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Limit(limit).Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("list chats failed: %w", err)
	}
	return chats, nil
}

func (r *ChatRepository) GetByIDAndUserID(chatID, userID uint) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat failed: %w", err)
	}
	return &chat, nil
}

func (r *ChatRepository) Touch(chatID uint, at time.Time) error {
	if err := r.db.Model(&model.Chat{}).Where("id = ?", chatID).Update("updated_at", at).Error; err != nil {
		return fmt.Errorf("touch chat failed: %w", err)
	}
	return nil
}

func (r *ChatRepository) DeleteByIDAndUserID(chatID, userID uint) error {
	if err := r.db.Where("id = ? AND user_id = ?", chatID, userID).Delete(&model.Chat{}).Error; err != nil {
		return fmt.Errorf("delete chat failed: %w", err)
	}
	return nil
}
