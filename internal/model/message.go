package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChatID     uint      `gorm:"not null;index" json:"chat_id"`
	Role       string    `gorm:"size:16;not null" json:"role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	TokensUsed int       `json:"tokens_used,omitempty"`
	ModelUsed  string    `gorm:"size:64" json:"model_used,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
