package contract

import (
	"context"
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Touch(ctx context.Context, id uuid.UUID, updatedAt time.Time) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
