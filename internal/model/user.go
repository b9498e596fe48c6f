package model

import "time"

type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Username      string     `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email         string     `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash  string     `gorm:"size:255;not null" json:"-"`
	FullName      string     `gorm:"size:128" json:"full_name,omitempty"`
	PreferredName string     `gorm:"size:64" json:"preferred_name,omitempty"`
	Bio           string     `gorm:"size:512" json:"bio,omitempty"`
	AvatarURL     string     `gorm:"size:255" json:"avatar_url,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
