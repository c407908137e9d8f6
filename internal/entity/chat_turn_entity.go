package entity

import (
	"time"

	"github.com/google/uuid"
)

// Provenance records which path produced a turn's answer.
type Provenance string

const (
	ProvenanceCache  Provenance = "cache"
	ProvenanceSearch Provenance = "search"
	ProvenanceEmpty  Provenance = "empty"
	ProvenanceFailed Provenance = "failed"
)

const SourceTypeCache = "cache"
const SourceTypeKnowledge = "knowledge"

// SourceRef points at the knowledge item (or the cache) an answer was grounded on.
type SourceRef struct {
	Type string `json:"type"`
	Id   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type ChatTurn struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	ChatSessionId uuid.UUID
	Question      string
	Answer        string
	Sources       []SourceRef
	Provenance    Provenance
	CreatedAt     time.Time
}
