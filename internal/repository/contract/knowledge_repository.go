package contract

import (
	"context"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/specification"
)

// ScoredKnowledgeItem wraps a KnowledgeItem with the score its source assigned.
// Dense scores are cosine similarity, sparse scores are inner products; never compare the two.
type ScoredKnowledgeItem struct {
	Item  *entity.KnowledgeItem
	Score float64
}

type KnowledgeRepository interface {
	Create(ctx context.Context, item *entity.KnowledgeItem) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeItem, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchDense orders by cosine distance, best first.
	SearchDense(ctx context.Context, embedding []float32, limit int) ([]*ScoredKnowledgeItem, error)
	// SearchSparse orders by inner product on the sparse column, best first.
	SearchSparse(ctx context.Context, weights map[int32]float32, limit int) ([]*ScoredKnowledgeItem, error)
}
