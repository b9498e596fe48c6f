package model

import "time"

// UsageRecord is one generation accounting row, written asynchronously by the
// usage worker after an assistant turn has been persisted.
type UsageRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ChatID     uint      `gorm:"not null;index" json:"chat_id"`
	MessageID  uint      `gorm:"not null" json:"message_id"`
	ModelUsed  string    `gorm:"size:64;not null" json:"model_used"`
	TokensUsed int       `json:"tokens_used"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
