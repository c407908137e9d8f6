package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type KnowledgeItem struct {
	Id              uuid.UUID             `gorm:"type:uuid;primaryKey"`
	Name            string                `gorm:"type:text;not null"`
	Content         string                `gorm:"type:text;not null"`
	Attributes      datatypes.JSONMap     `gorm:"type:jsonb"`
	DenseEmbedding  pgvector.Vector       `gorm:"type:vector(1024)"`     // bge-m3 dense output
	SparseEmbedding pgvector.SparseVector `gorm:"type:sparsevec(30522)"` // SPLADE vocabulary size
	CreatedAt       time.Time             `gorm:"autoCreateTime"`
}

func (KnowledgeItem) TableName() string {
	return "knowledge_items"
}
