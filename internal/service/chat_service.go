package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/constant"
	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/metrics"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/pkg/embedding"
	"github.com/hoanghaiduong/gym-food-rag/pkg/llm"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/fusion"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/prompt"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/retrieval"

	"github.com/google/uuid"
)

const DefaultContextLimit = 30

type IChatService interface {
	Ask(ctx context.Context, userId uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error)
}

type AnswerCache interface {
	Lookup(ctx context.Context, vector []float32) (string, bool)
}

type Retriever interface {
	Retrieve(ctx context.Context, question string, denseVector []float32) (*retrieval.Result, error)
}

type SessionManager interface {
	CreateSession(ctx context.Context, userId uuid.UUID, seedText string) (uuid.UUID, error)
	SessionExists(ctx context.Context, sessionId, userId uuid.UUID) (bool, error)
}

type chatService struct {
	embedder     embedding.DenseEmbedder
	cache        AnswerCache
	retriever    Retriever
	fusion       *fusion.Engine
	prompts      *prompt.Builder
	llm          llm.LLMProvider
	sessions     SessionManager
	dispatcher   IPersistenceDispatcher
	contextLimit int
	logger       logger.ILogger
	promptLogger logger.ILogger
}

type ChatServiceDeps struct {
	Embedder     embedding.DenseEmbedder
	Cache        AnswerCache
	Retriever    Retriever
	Fusion       *fusion.Engine
	Prompts      *prompt.Builder
	LLM          llm.LLMProvider
	Sessions     SessionManager
	Dispatcher   IPersistenceDispatcher
	ContextLimit int
	Logger       logger.ILogger
	PromptLogger logger.ILogger // optional, receives every assembled prompt
}

func NewChatService(deps ChatServiceDeps) IChatService {
	if deps.ContextLimit <= 0 {
		deps.ContextLimit = DefaultContextLimit
	}
	if deps.Fusion == nil {
		deps.Fusion = fusion.NewEngine(fusion.DefaultRRFConstant)
	}
	if deps.Prompts == nil {
		deps.Prompts = prompt.NewBuilder(constant.NutritionistSystemPrompt)
	}
	if deps.PromptLogger == nil {
		deps.PromptLogger = logger.NewNopLogger()
	}
	return &chatService{
		embedder:     deps.Embedder,
		cache:        deps.Cache,
		retriever:    deps.Retriever,
		fusion:       deps.Fusion,
		prompts:      deps.Prompts,
		llm:          deps.LLM,
		sessions:     deps.Sessions,
		dispatcher:   deps.Dispatcher,
		contextLimit: deps.ContextLimit,
		logger:       deps.Logger,
		promptLogger: deps.PromptLogger,
	}
}

// Ask answers one question. Persistence (turn and cache entry) is dispatched,
// never awaited, so the response does not depend on it.
func (s *chatService) Ask(ctx context.Context, userId uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error) {
	askedAt := time.Now().UTC()
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be blank", ErrInvalidRequest)
	}

	// 1. Session
	sessionId, err := s.resolveSession(ctx, userId, req.SessionId, question)
	if err != nil {
		return nil, err
	}

	// 2. Cache check
	vector, err := s.embedder.EmbedDense(ctx, question)
	if err != nil {
		metrics.RetrievalOutcomesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: dense embedding: %w", ErrRetrievalFailed, err)
	}

	turn := TurnRecord{
		Id:        uuid.New(),
		UserId:    userId,
		SessionId: sessionId,
		Question:  question,
		AskedAt:   askedAt,
	}

	if answer, hit := s.cache.Lookup(ctx, vector); hit {
		turn.Answer = answer
		turn.Sources = []entity.SourceRef{{Type: entity.SourceTypeCache}}
		turn.Provenance = entity.ProvenanceCache
		return s.respond(turn, []string{constant.CacheContextMarker}), nil
	}

	// 3. Search
	retrieved, err := s.retriever.Retrieve(ctx, question, vector)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}
	fused := s.fusion.Merge(retrieved.Dense, retrieved.Sparse, s.contextLimit)

	if len(fused) == 0 {
		turn.Answer = constant.NoInformationAnswer
		turn.Sources = []entity.SourceRef{}
		turn.Provenance = entity.ProvenanceEmpty
		return s.respond(turn, []string{}), nil
	}

	contextUsed := make([]string, 0, len(fused))
	sources := make([]entity.SourceRef, 0, len(fused))
	for i, r := range fused {
		contextUsed = append(contextUsed, prompt.ContextLine(i+1, r))
		sources = append(sources, entity.SourceRef{
			Type: entity.SourceTypeKnowledge,
			Id:   r.ID(),
			Name: r.Item.Name,
		})
	}
	turn.Sources = sources

	// 4. Generate
	fullPrompt := s.prompts.Build(question, fused)
	s.promptLogger.Debug("LLM", "Prompt assembled", map[string]interface{}{
		"session_id": sessionId.String(),
		"prompt":     fullPrompt,
	})

	start := time.Now()
	answer, err := s.llm.Generate(ctx, fullPrompt)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("empty answer")
	}
	if err != nil {
		s.logger.Error("CHAT", "Generation failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		turn.Answer = constant.GenerationFailedAnswer
		turn.Provenance = entity.ProvenanceFailed
		s.dispatcher.DispatchTurn(turn)
		metrics.ChatRequestsTotal.WithLabelValues(string(entity.ProvenanceFailed)).Inc()
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	// 5. Persist
	turn.Answer = answer
	turn.Provenance = entity.ProvenanceSearch
	s.dispatcher.DispatchCacheWrite(CacheTask{Vector: vector, Question: question, Answer: answer})
	return s.respond(turn, contextUsed), nil
}

func (s *chatService) resolveSession(ctx context.Context, userId uuid.UUID, requested *uuid.UUID, question string) (uuid.UUID, error) {
	if requested == nil || *requested == uuid.Nil {
		sessionId, err := s.sessions.CreateSession(ctx, userId, question)
		if err != nil {
			return uuid.Nil, err
		}
		return sessionId, nil
	}

	exists, err := s.sessions.SessionExists(ctx, *requested, userId)
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		return uuid.Nil, ErrSessionNotFound
	}
	return *requested, nil
}

func (s *chatService) respond(turn TurnRecord, contextUsed []string) *dto.AskResponse {
	s.dispatcher.DispatchTurn(turn)
	metrics.ChatRequestsTotal.WithLabelValues(string(turn.Provenance)).Inc()

	s.logger.Info("CHAT", "Question answered", map[string]interface{}{
		"session_id": turn.SessionId.String(),
		"provenance": string(turn.Provenance),
		"sources":    len(turn.Sources),
	})

	return &dto.AskResponse{
		Answer:      turn.Answer,
		SessionId:   turn.SessionId,
		ContextUsed: contextUsed,
		Provenance:  string(turn.Provenance),
	}
}
