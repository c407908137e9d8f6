package entity

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeItem struct {
	Id              uuid.UUID
	Name            string
	Content         string
	Attributes      map[string]interface{}
	DenseEmbedding  []float32
	SparseEmbedding map[int32]float32
	CreatedAt       time.Time
}
