package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index:idx_chat_sessions_user_updated,priority:1"` // User ownership for data isolation
	Title     string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null;index:idx_chat_sessions_user_updated,priority:2"`
	Turns     []ChatTurn `gorm:"foreignKey:ChatSessionId;constraint:OnDelete:CASCADE"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
