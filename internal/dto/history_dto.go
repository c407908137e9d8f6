package dto

import (
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"

	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize clamps limit to [1,100] with 20 as default, and offset to >= 0.
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type SessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TurnResponse struct {
	Id            uuid.UUID          `json:"id"`
	ChatSessionId uuid.UUID          `json:"session_id"`
	Question      string             `json:"question"`
	Answer        string             `json:"answer"`
	Sources       []entity.SourceRef `json:"sources"`
	Provenance    string             `json:"provenance"`
	CreatedAt     time.Time          `json:"created_at"`
}

type TranscriptResponse struct {
	SessionId uuid.UUID       `json:"session_id"`
	Turns     []*TurnResponse `json:"turns"`
}

type ClearHistoryResponse struct {
	DeletedRows int64 `json:"deleted_rows"`
}
