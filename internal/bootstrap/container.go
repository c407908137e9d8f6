package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/config"
	"github.com/hoanghaiduong/gym-food-rag/internal/constant"
	"github.com/hoanghaiduong/gym-food-rag/internal/controller"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/implementation"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/unitofwork"
	"github.com/hoanghaiduong/gym-food-rag/internal/service"
	"github.com/hoanghaiduong/gym-food-rag/pkg/embedding"
	"github.com/hoanghaiduong/gym-food-rag/pkg/llm/factory"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/fusion"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/prompt"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/retrieval"
	"github.com/hoanghaiduong/gym-food-rag/pkg/semcache"

	pktNats "github.com/hoanghaiduong/gym-food-rag/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	HistoryController   controller.IHistoryController
	KnowledgeController controller.IKnowledgeController

	// Background Services (Exposed for main.go to run)
	Persistence *service.PersistenceService

	SemanticCache *semcache.Cache
	Logger        logger.ILogger

	redis     *redis.Client
	publisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	if cfg.App.JwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	promptLogger := logger.NewIsolatedLogger("logs/llm_prompts.log")

	// 2. AI Providers
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
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	sparseEmbedder := embedding.NewTEISparseProvider(cfg.Ai.SparseEmbeddingURL)
	sysLogger.Info("BOOTSTRAP", "Embedding provider ready", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
		"sparse":   cfg.Ai.SparseEmbeddingURL,
	})

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		Temperature: cfg.Ai.LLMTemperature,
		OllamaURL:   cfg.Ai.OllamaBaseURL,
		APIKey:      cfg.Ai.OpenAIAPIKey,
		OpenAIURL:   cfg.Ai.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 3. Infrastructure
	// Redis, RESP2 so FT.SEARCH replies come back as flat arrays
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as address", map[string]interface{}{
			"error": err.Error(),
		})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	opt.Protocol = 2
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// The cache degrades to misses; the index is provisioned lazily once Redis is back.
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	cancel()

	// NATS (optional)
	var natsPub *pktNats.Publisher
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(context.Background(), cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{
				"error": err.Error(),
			})
			natsPub = nil
		} else {
			eventPublisher = natsPub
		}
	}

	// 4. Semantic Cache
	cacheIndex := semcache.NewRedisIndex(rdb, cfg.Cache.IndexName, cfg.Ai.EmbeddingDimensions, cfg.Cache.TTL)
	semanticCache := semcache.New(cacheIndex, semcache.Config{
		Threshold:       cfg.Cache.Threshold,
		MinAnswerLength: cfg.Cache.MinAnswerLength,
		FailureMarkers:  constant.CacheFailureMarkers,
	}, sysLogger)

	// 5. Services
	historyService := service.NewHistoryService(uowFactory)

	pubSub := service.NewPersistenceGoChannel(cfg.Persistence.BufferSize, watermill.NewStdLogger(false, false))
	persistence := service.NewPersistenceService(
		pubSub,
		historyService,
		semanticCache,
		eventPublisher,
		cfg.Persistence.TaskTimeout,
		sysLogger,
	)

	retriever := retrieval.NewClient(
		implementation.NewKnowledgeRepository(db),
		sparseEmbedder,
		cfg.Rag.CandidateLimit,
		sysLogger,
	)

	chatService := service.NewChatService(service.ChatServiceDeps{
		Embedder:     denseEmbedder,
		Cache:        semanticCache,
		Retriever:    retriever,
		Fusion:       fusion.NewEngine(cfg.Rag.RRFConstant),
		Prompts:      prompt.NewBuilder(constant.NutritionistSystemPrompt),
		LLM:          llmProvider,
		Sessions:     historyService,
		Dispatcher:   persistence,
		ContextLimit: cfg.Rag.ContextLimit,
		Logger:       sysLogger,
		PromptLogger: promptLogger,
	})

	knowledgeService := service.NewKnowledgeService(uowFactory, denseEmbedder, sparseEmbedder, sysLogger)

	// 6. Controllers
	return &Container{
		ChatController:      controller.NewChatController(chatService, cfg.App.JwtSecret),
		HistoryController:   controller.NewHistoryController(historyService, cfg.App.JwtSecret),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService, cfg.App.JwtSecret),

		Persistence:   persistence,
		SemanticCache: semanticCache,
		Logger:        sysLogger,

		redis:     rdb,
		publisher: natsPub,
	}, nil
}

// Close drains background tasks before dropping the connections they use.
func (c *Container) Close() {
	if err := c.Persistence.Close(); err != nil {
		c.Logger.Warn("BOOTSTRAP", "Failed to close persistence bus", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if c.publisher != nil {
		c.publisher.Close()
	}
	if err := c.redis.Close(); err != nil {
		c.Logger.Warn("BOOTSTRAP", "Failed to close Redis client", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
