package model

import "time"

// User 用于 Subsonic 鉴权的账号记录（AUTH_MODE=db）
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:128;index" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Not exposed in API responses
	Enabled      bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
