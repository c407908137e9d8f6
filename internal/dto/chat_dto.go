package dto

import "github.com/google/uuid"

type AskRequest struct {
	Question  string     `json:"question" validate:"required,max=2000"`
	SessionId *uuid.UUID `json:"session_id"`
}

type AskResponse struct {
	Answer      string    `json:"answer"`
	SessionId   uuid.UUID `json:"session_id"`
	ContextUsed []string  `json:"context_used"`
	Provenance  string    `json:"provenance"`
}
