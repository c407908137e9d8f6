package mapper

import (
	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// SparseDimensions is the SPLADE vocabulary size stored in sparsevec columns.
const SparseDimensions = 30522

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) KnowledgeItemToEntity(k *model.KnowledgeItem) *entity.KnowledgeItem {
	if k == nil {
		return nil
	}

	return &entity.KnowledgeItem{
		Id:         k.Id,
		Name:       k.Name,
		Content:    k.Content,
		Attributes: map[string]interface{}(k.Attributes),
		CreatedAt:  k.CreatedAt,
	}
}

func (m *KnowledgeMapper) KnowledgeItemToModel(k *entity.KnowledgeItem) *model.KnowledgeItem {
	if k == nil {
		return nil
	}

	return &model.KnowledgeItem{
		Id:              k.Id,
		Name:            k.Name,
		Content:         k.Content,
		Attributes:      datatypes.JSONMap(k.Attributes),
		DenseEmbedding:  pgvector.NewVector(k.DenseEmbedding),
		SparseEmbedding: pgvector.NewSparseVectorFromMap(k.SparseEmbedding, SparseDimensions),
		CreatedAt:       k.CreatedAt,
	}
}
