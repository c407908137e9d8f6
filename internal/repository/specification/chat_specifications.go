package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// RecentlyUpdatedFirst orders sessions for the sidebar listing.
type RecentlyUpdatedFirst struct{}

func (s RecentlyUpdatedFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("updated_at DESC").Order("id DESC")
}
