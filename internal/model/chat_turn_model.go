package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatTurn struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	ChatSessionId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Question      string         `gorm:"type:text;not null"`
	Answer        string         `gorm:"type:text;not null"`
	Sources       datatypes.JSON `gorm:"type:jsonb"`
	Provenance    string         `gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time      `gorm:"not null;index"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}
