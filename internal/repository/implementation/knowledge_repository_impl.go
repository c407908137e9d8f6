package implementation

import (
	"context"
	"errors"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/mapper"
	"github.com/hoanghaiduong/gym-food-rag/internal/model"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/contract"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Embedding columns are never read back; the search path only needs the payload.
const knowledgePayloadColumns = "id, name, content, attributes, created_at"

type KnowledgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewKnowledgeRepository(db *gorm.DB) contract.KnowledgeRepository {
	return &KnowledgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

type scoredKnowledgeRow struct {
	model.KnowledgeItem
	Score float64
}

func (r *KnowledgeRepositoryImpl) Create(ctx context.Context, item *entity.KnowledgeItem) error {
	m := r.mapper.KnowledgeItemToModel(item)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	item.CreatedAt = m.CreatedAt
	return nil
}

func (r *KnowledgeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeItem, error) {
	var m model.KnowledgeItem
	query := specification.ApplyAll(r.db.WithContext(ctx).Select(knowledgePayloadColumns), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.KnowledgeItemToEntity(&m), nil
}

func (r *KnowledgeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.KnowledgeItem{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *KnowledgeRepositoryImpl) SearchDense(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredKnowledgeItem, error) {
	if limit <= 0 {
		limit = 100
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	queryVector := pgvector.NewVector(embedding)

	var rows []scoredKnowledgeRow
	err := r.db.WithContext(ctx).
		Table("knowledge_items").
		Select(knowledgePayloadColumns+", 1 - (dense_embedding <=> ?) AS score", queryVector).
		Order(gorm.Expr("dense_embedding <=> ?", queryVector)).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toScored(rows), nil
}

func (r *KnowledgeRepositoryImpl) SearchSparse(ctx context.Context, weights map[int32]float32, limit int) ([]*contract.ScoredKnowledgeItem, error) {
	if limit <= 0 {
		limit = 100
	}

	// <#> is the negative inner product, so ascending order is best first
	queryVector := pgvector.NewSparseVectorFromMap(weights, mapper.SparseDimensions)

	var rows []scoredKnowledgeRow
	err := r.db.WithContext(ctx).
		Table("knowledge_items").
		Select(knowledgePayloadColumns+", (sparse_embedding <#> ?) * -1 AS score", queryVector).
		Where("sparse_embedding IS NOT NULL").
		Order(gorm.Expr("sparse_embedding <#> ?", queryVector)).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toScored(rows), nil
}

func (r *KnowledgeRepositoryImpl) toScored(rows []scoredKnowledgeRow) []*contract.ScoredKnowledgeItem {
	scored := make([]*contract.ScoredKnowledgeItem, len(rows))
	for i := range rows {
		scored[i] = &contract.ScoredKnowledgeItem{
			Item:  r.mapper.KnowledgeItemToEntity(&rows[i].KnowledgeItem),
			Score: rows[i].Score,
		}
	}
	return scored
}
