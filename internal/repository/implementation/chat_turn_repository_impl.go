package implementation

import (
	"context"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/mapper"
	"github.com/hoanghaiduong/gym-food-rag/internal/model"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/contract"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatTurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatTurnRepository(db *gorm.DB) contract.ChatTurnRepository {
	return &ChatTurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatTurnRepositoryImpl) Create(ctx context.Context, turn *entity.ChatTurn) error {
	m, err := r.mapper.ChatTurnToModel(turn)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.ChatTurnToEntity(m)
	return nil
}

func (r *ChatTurnRepositoryImpl) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.ChatTurn{})
	return res.RowsAffected, res.Error
}

func (r *ChatTurnRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error) {
	var models []*model.ChatTurn
	query := specification.ApplyAll(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatTurnsToEntities(models), nil
}

func (r *ChatTurnRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.ChatTurn{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
