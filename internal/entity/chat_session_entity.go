package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession groups turns under one owner. UpdatedAt moves forward on every appended turn.
type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
