package contract

import (
	"context"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) (int64, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
