package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hoanghaiduong/gym-food-rag/internal/constant"
	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/pkg/llm"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/fusion"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/retrieval"
	"github.com/hoanghaiduong/gym-food-rag/pkg/semcache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedDense(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.6, 0.8}, nil
}

type fakeAnswerCache struct {
	answer string
	hit    bool
	calls  int
}

func (f *fakeAnswerCache) Lookup(_ context.Context, _ []float32) (string, bool) {
	f.calls++
	return f.answer, f.hit
}

type fakeRetriever struct {
	result *retrieval.Result
	err    error
	calls  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ []float32) (*retrieval.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeLLM struct {
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type fakeSessions struct {
	created  int
	owned    map[uuid.UUID]uuid.UUID // session -> owner
	createId uuid.UUID
	err      error
}

func (f *fakeSessions) CreateSession(_ context.Context, _ uuid.UUID, _ string) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.created++
	return f.createId, nil
}

func (f *fakeSessions) SessionExists(_ context.Context, sessionId, userId uuid.UUID) (bool, error) {
	owner, ok := f.owned[sessionId]
	return ok && owner == userId, nil
}

type fakeDispatcher struct {
	turns       []TurnRecord
	cacheWrites []CacheTask
}

func (f *fakeDispatcher) DispatchTurn(task TurnRecord) {
	f.turns = append(f.turns, task)
}

func (f *fakeDispatcher) DispatchCacheWrite(task CacheTask) {
	f.cacheWrites = append(f.cacheWrites, task)
}

func candidate(name string, rank int) fusion.CandidateHit {
	return fusion.CandidateHit{
		Item: &entity.KnowledgeItem{Id: uuid.New(), Name: name, Content: name + " content"},
		Rank: rank,
	}
}

type chatFixture struct {
	embedder   *fakeEmbedder
	cache      *fakeAnswerCache
	retriever  *fakeRetriever
	llm        *fakeLLM
	sessions   *fakeSessions
	dispatcher *fakeDispatcher
	owner      uuid.UUID
}

func newChatFixture() *chatFixture {
	return &chatFixture{
		embedder: &fakeEmbedder{},
		cache:    &fakeAnswerCache{},
		retriever: &fakeRetriever{result: &retrieval.Result{
			Dense:  []fusion.CandidateHit{candidate("Ức gà", 1)},
			Sparse: []fusion.CandidateHit{},
		}},
		llm:        &fakeLLM{answer: "Ức gà có khoảng 31g protein trên 100g."},
		sessions:   &fakeSessions{createId: uuid.New(), owned: map[uuid.UUID]uuid.UUID{}},
		dispatcher: &fakeDispatcher{},
		owner:      uuid.New(),
	}
}

func (f *chatFixture) service(cache AnswerCache) IChatService {
	return NewChatService(ChatServiceDeps{
		Embedder:   f.embedder,
		Cache:      cache,
		Retriever:  f.retriever,
		LLM:        f.llm,
		Sessions:   f.sessions,
		Dispatcher: f.dispatcher,
		Logger:     logger.NewNopLogger(),
	})
}

func TestChatService_BlankQuestion(t *testing.T) {
	f := newChatFixture()
	_, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "   "})

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, f.sessions.created)
	assert.Equal(t, 0, f.embedder.calls)
}

func TestChatService_CacheHitBypassesSearch(t *testing.T) {
	f := newChatFixture()
	f.cache.hit = true
	f.cache.answer = "cached answer about chicken"

	res, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "Ức gà?"})
	require.NoError(t, err)

	assert.Equal(t, "cached answer about chicken", res.Answer)
	assert.Equal(t, "cache", res.Provenance)
	assert.Equal(t, []string{constant.CacheContextMarker}, res.ContextUsed)
	assert.Equal(t, 0, f.retriever.calls)
	assert.Equal(t, 0, f.llm.calls)

	require.Len(t, f.dispatcher.turns, 1)
	assert.Equal(t, []entity.SourceRef{{Type: entity.SourceTypeCache}}, f.dispatcher.turns[0].Sources)
	assert.Empty(t, f.dispatcher.cacheWrites)
}

func TestChatService_SearchPathPersistsBoth(t *testing.T) {
	f := newChatFixture()
	res, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "Ức gà bao nhiêu protein?"})
	require.NoError(t, err)

	assert.Equal(t, "search", res.Provenance)
	assert.Equal(t, f.sessions.createId, res.SessionId)
	assert.Equal(t, []string{"[1] Ức gà - Ức gà content"}, res.ContextUsed)

	require.Len(t, f.llm.prompts, 1)
	p := f.llm.prompts[0]
	assert.True(t, strings.HasPrefix(p, strings.TrimSpace(constant.NutritionistSystemPrompt)))
	assert.Contains(t, p, "CONTEXT INFORMATION:\n[1] Ức gà - Ức gà content\n")
	assert.True(t, strings.HasSuffix(p, "USER QUESTION:\nỨc gà bao nhiêu protein?\n"))

	require.Len(t, f.dispatcher.cacheWrites, 1)
	assert.Equal(t, res.Answer, f.dispatcher.cacheWrites[0].Answer)
	require.Len(t, f.dispatcher.turns, 1)
	turn := f.dispatcher.turns[0]
	assert.Equal(t, entity.ProvenanceSearch, turn.Provenance)
	require.Len(t, turn.Sources, 1)
	assert.Equal(t, entity.SourceTypeKnowledge, turn.Sources[0].Type)
	assert.Equal(t, "Ức gà", turn.Sources[0].Name)
}

func TestChatService_EmptyFusion(t *testing.T) {
	f := newChatFixture()
	f.retriever.result = &retrieval.Result{SparseErr: errors.New("tei down")}

	res, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "Món lạ?"})
	require.NoError(t, err)

	assert.Equal(t, constant.NoInformationAnswer, res.Answer)
	assert.Equal(t, "empty", res.Provenance)
	assert.NotNil(t, res.ContextUsed)
	assert.Empty(t, res.ContextUsed)
	assert.Equal(t, 0, f.llm.calls)
	assert.Empty(t, f.dispatcher.cacheWrites)
	require.Len(t, f.dispatcher.turns, 1)
	assert.Empty(t, f.dispatcher.turns[0].Sources)
}

func TestChatService_PartialRetrievalStillAnswers(t *testing.T) {
	f := newChatFixture()
	f.retriever.result = &retrieval.Result{
		Sparse:   []fusion.CandidateHit{candidate("Cơm gạo lứt", 1), candidate("Khoai lang", 2)},
		DenseErr: errors.New("pgvector timeout"),
	}

	res, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "Carb tốt?"})
	require.NoError(t, err)
	assert.Equal(t, "search", res.Provenance)
	require.Len(t, res.ContextUsed, 2)
	assert.True(t, strings.HasPrefix(res.ContextUsed[0], "[1] Cơm gạo lứt"))
}

func TestChatService_BothSourcesFailed(t *testing.T) {
	f := newChatFixture()
	f.retriever.err = retrieval.ErrAllSourcesFailed

	_, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "q?"})
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.ErrorIs(t, err, retrieval.ErrAllSourcesFailed)
	assert.Empty(t, f.dispatcher.turns)
}

func TestChatService_EmbeddingFailureIsRetrievalFailure(t *testing.T) {
	f := newChatFixture()
	f.embedder.err = errors.New("ollama down")

	_, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "q?"})
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.Equal(t, 0, f.cache.calls)
}

func TestChatService_GenerationFailureRecordedNotCached(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
	}{
		{"backend error", "", errors.New("503")},
		{"blank answer", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture()
			f.llm.answer = tt.answer
			f.llm.err = tt.err

			_, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "q?"})
			assert.ErrorIs(t, err, ErrGenerationFailed)
			assert.Empty(t, f.dispatcher.cacheWrites)
			require.Len(t, f.dispatcher.turns, 1)
			assert.Equal(t, entity.ProvenanceFailed, f.dispatcher.turns[0].Provenance)
			assert.Equal(t, constant.GenerationFailedAnswer, f.dispatcher.turns[0].Answer)
		})
	}
}

func TestChatService_SessionHandling(t *testing.T) {
	t.Run("supplied owned session is reused", func(t *testing.T) {
		f := newChatFixture()
		existing := uuid.New()
		f.sessions.owned[existing] = f.owner

		res, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "q?", SessionId: &existing})
		require.NoError(t, err)
		assert.Equal(t, existing, res.SessionId)
		assert.Equal(t, 0, f.sessions.created)
	})

	t.Run("foreign session is rejected", func(t *testing.T) {
		f := newChatFixture()
		foreign := uuid.New()
		f.sessions.owned[foreign] = uuid.New()

		_, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "q?", SessionId: &foreign})
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.Equal(t, 0, f.embedder.calls)
	})

	t.Run("session creation failure is fatal", func(t *testing.T) {
		f := newChatFixture()
		f.sessions.err = errors.New("db down")

		_, err := f.service(f.cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "q?"})
		assert.Error(t, err)
		assert.Equal(t, 0, f.embedder.calls)
	})
}

type brokenIndex struct{}

func (brokenIndex) EnsureIndex(context.Context) error { return errors.New("connection refused") }
func (brokenIndex) Nearest(context.Context, []float32) (*semcache.Match, error) {
	return nil, errors.New("connection refused")
}
func (brokenIndex) Insert(context.Context, semcache.Entry) error { return errors.New("connection refused") }

func TestChatService_CacheOutageFallsBackToSearch(t *testing.T) {
	f := newChatFixture()
	cache := semcache.New(brokenIndex{}, semcache.Config{}, logger.NewNopLogger())

	res, err := f.service(cache).Ask(context.Background(), f.owner, &dto.AskRequest{Question: "Ức gà?"})
	require.NoError(t, err)
	assert.Equal(t, "search", res.Provenance)
	assert.Equal(t, 1, f.retriever.calls)
}
