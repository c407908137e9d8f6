package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/hoanghaiduong/gym-food-rag/internal/config"
	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/serverutils"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/specification"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/unitofwork"
	"github.com/hoanghaiduong/gym-food-rag/internal/service"
	"github.com/hoanghaiduong/gym-food-rag/pkg/database"
	"github.com/hoanghaiduong/gym-food-rag/pkg/embedding"
)

func main() {
	path := flag.String("file", "data/foods.json", "JSON array of foods to index")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogLevel)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Error: Failed to read %s: %v", *path, err)
	}
	var foods []dto.AddFoodRequest
	if err := json.Unmarshal(raw, &foods); err != nil {
		log.Fatalf("Error: Failed to parse %s: %v", *path, err)
	}

	denseEmbedder, err := embedding.NewDenseEmbedder(embedding.DenseConfig{
		Provider:     cfg.Ai.EmbeddingProvider,
		OllamaURL:    cfg.Ai.OllamaBaseURL,
		OllamaModel:  cfg.Ai.OllamaEmbeddingModel,
		OpenAIAPIKey: cfg.Ai.OpenAIAPIKey,
		OpenAIURL:    cfg.Ai.OpenAIBaseURL,
		OpenAIModel:  cfg.Ai.OpenAIEmbeddingModel,
		Dimensions:   cfg.Ai.EmbeddingDimensions,
	})
	if err != nil {
		log.Fatalf("Error: Failed to initialize embedding provider: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	knowledgeService := service.NewKnowledgeService(
		uowFactory,
		denseEmbedder,
		embedding.NewTEISparseProvider(cfg.Ai.SparseEmbeddingURL),
		logger.NewZapLogger(cfg.App.LogFilePath, false),
	)

	log.Printf("Seeding %d foods...", len(foods))

	ctx := context.Background()
	added := 0
	for i := range foods {
		f := &foods[i]
		if err := serverutils.ValidateRequest(*f); err != nil {
			log.Printf("Food #%d is invalid, skipping: %v", i, err)
			continue
		}

		count, err := uowFactory.NewUnitOfWork(ctx).KnowledgeRepository().Count(ctx, specification.ByName{Name: f.Name})
		if err != nil {
			log.Fatalf("Error: Failed to check food '%s': %v", f.Name, err)
		}
		if count > 0 {
			log.Printf("Food '%s' already exists, skipping...", f.Name)
			continue
		}

		res, err := knowledgeService.AddFood(ctx, f)
		if err != nil {
			log.Fatalf("Error: Failed to add food '%s': %v", f.Name, err)
		}
		added++
		log.Printf("Added '%s' (%s)", f.Name, res.Id)
	}

	log.Printf("Seeding completed: %d added, %d skipped.", added, len(foods)-added)
}
