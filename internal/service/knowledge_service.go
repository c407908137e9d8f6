package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/constant"
	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/unitofwork"
	"github.com/hoanghaiduong/gym-food-rag/pkg/embedding"

	"github.com/google/uuid"
)

type IKnowledgeService interface {
	AddFood(ctx context.Context, req *dto.AddFoodRequest) (*dto.AddFoodResponse, error)
}

type knowledgeService struct {
	uowFactory     unitofwork.RepositoryFactory
	denseEmbedder  embedding.DenseEmbedder
	sparseEmbedder embedding.SparseEmbedder
	logger         logger.ILogger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	denseEmbedder embedding.DenseEmbedder,
	sparseEmbedder embedding.SparseEmbedder,
	logger logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:     uowFactory,
		denseEmbedder:  denseEmbedder,
		sparseEmbedder: sparseEmbedder,
		logger:         logger,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FoodContent renders the text that is both embedded and shown to the generator.
func FoodContent(req *dto.AddFoodRequest) string {
	group := strings.TrimSpace(req.Group)
	if group == "" {
		group = constant.DefaultFoodGroup
	}

	advice := ""
	if req.Protein > constant.HighProteinThreshold {
		advice = constant.HighProteinAdvice
	}

	return fmt.Sprintf("Món ăn: %s. Dinh dưỡng: %s kcal, Protein %sg, Fat %sg, Carb %sg. %s. %s Nhóm: %s.",
		strings.TrimSpace(req.Name),
		formatNumber(req.Calories),
		formatNumber(req.Protein),
		formatNumber(req.Fat),
		formatNumber(req.Carbs),
		strings.TrimSpace(req.Description),
		advice,
		group,
	)
}

func (s *knowledgeService) AddFood(ctx context.Context, req *dto.AddFoodRequest) (*dto.AddFoodResponse, error) {
	content := FoodContent(req)

	dense, err := s.denseEmbedder.EmbedDense(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed dense: %w", err)
	}
	sparse, err := s.sparseEmbedder.EmbedSparse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sparse: %w", err)
	}

	group := strings.TrimSpace(req.Group)
	if group == "" {
		group = constant.DefaultFoodGroup
	}

	item := &entity.KnowledgeItem{
		Id:      uuid.New(),
		Name:    strings.TrimSpace(req.Name),
		Content: content,
		Attributes: map[string]interface{}{
			"kcal":      req.Calories,
			"protein_g": req.Protein,
			"carbs_g":   req.Carbs,
			"fat_g":     req.Fat,
			"group":     group,
		},
		DenseEmbedding:  dense,
		SparseEmbedding: sparse,
		CreatedAt:       time.Now().UTC(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KnowledgeRepository().Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to insert knowledge item: %w", err)
	}

	s.logger.Info("KNOWLEDGE", "Food added", map[string]interface{}{
		"id":   item.Id.String(),
		"name": item.Name,
	})

	return &dto.AddFoodResponse{Id: item.Id}, nil
}
