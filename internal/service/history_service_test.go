package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/model"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/unitofwork"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.ChatSession{}, &model.ChatTurn{}))
	return db
}

// frozenClock hands out a fixed instant so tests can force clock skew.
type frozenClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *frozenClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func newTestHistoryService(t *testing.T) (*historyService, *frozenClock) {
	t.Helper()
	clock := &frozenClock{at: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewHistoryService(unitofwork.NewRepositoryFactory(newTestDB(t))).(*historyService)
	svc.now = clock.now
	return svc, clock
}

func TestSessionTitle(t *testing.T) {
	tests := []struct {
		name string
		seed string
		want string
	}{
		{"short", "  Ức gà bao nhiêu protein?  ", "Ức gà bao nhiêu protein?"},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"long multibyte", strings.Repeat("ư", 60), strings.Repeat("ư", 50) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionTitle(tt.seed))
		})
	}
}

func TestHistoryService_AppendTurnAdvancesUpdatedAt(t *testing.T) {
	svc, _ := newTestHistoryService(t)
	ctx := context.Background()
	owner := uuid.New()

	sessionId, err := svc.CreateSession(ctx, owner, "first question")
	require.NoError(t, err)

	// Clock frozen: each append must still move updated_at forward.
	var previous time.Time
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AppendTurn(ctx, TurnRecord{
			UserId:     owner,
			SessionId:  sessionId,
			Question:   "q",
			Answer:     "a",
			Provenance: entity.ProvenanceSearch,
		}))

		sessions, err := svc.ListSessions(ctx, owner, dto.PageRequest{})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.True(t, sessions[0].UpdatedAt.After(previous), "iteration %d", i)
		previous = sessions[0].UpdatedAt
	}

	turns, err := svc.GetTranscript(ctx, sessionId, owner)
	require.NoError(t, err)
	assert.Len(t, turns, 3)
}

func TestHistoryService_AppendTurnRejectsForeignSession(t *testing.T) {
	svc, _ := newTestHistoryService(t)
	ctx := context.Background()

	sessionId, err := svc.CreateSession(ctx, uuid.New(), "mine")
	require.NoError(t, err)

	err = svc.AppendTurn(ctx, TurnRecord{UserId: uuid.New(), SessionId: sessionId, Question: "q", Answer: "a"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHistoryService_OwnershipIsolation(t *testing.T) {
	svc, _ := newTestHistoryService(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	sessionId, err := svc.CreateSession(ctx, alice, "alice")
	require.NoError(t, err)

	turns, err := svc.GetTranscript(ctx, sessionId, bob)
	require.NoError(t, err)
	assert.Nil(t, turns)

	turns, err = svc.GetTranscript(ctx, uuid.New(), alice)
	require.NoError(t, err)
	assert.Nil(t, turns)

	turns, err = svc.GetTranscript(ctx, sessionId, alice)
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)

	exists, err := svc.SessionExists(ctx, sessionId, bob)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = svc.SessionExists(ctx, sessionId, alice)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHistoryService_ListSessionsOrderAndPaging(t *testing.T) {
	svc, clock := newTestHistoryService(t)
	ctx := context.Background()
	owner := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		clock.at = clock.at.Add(time.Minute)
		id, err := svc.CreateSession(ctx, owner, "s")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// Touch the oldest session, it moves to the top.
	clock.at = clock.at.Add(time.Minute)
	require.NoError(t, svc.AppendTurn(ctx, TurnRecord{UserId: owner, SessionId: ids[0], Question: "q", Answer: "a"}))

	sessions, err := svc.ListSessions(ctx, owner, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, ids[0], sessions[0].Id)
	assert.Equal(t, ids[2], sessions[1].Id)

	sessions, err = svc.ListSessions(ctx, owner, dto.PageRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, ids[1], sessions[0].Id)
}

func TestHistoryService_ListTurnsNewestFirst(t *testing.T) {
	svc, clock := newTestHistoryService(t)
	ctx := context.Background()
	owner := uuid.New()

	sessionId, err := svc.CreateSession(ctx, owner, "s")
	require.NoError(t, err)

	for _, q := range []string{"first", "second"} {
		clock.at = clock.at.Add(time.Second)
		require.NoError(t, svc.AppendTurn(ctx, TurnRecord{
			UserId:    owner,
			SessionId: sessionId,
			Question:  q,
			Answer:    "a",
			Sources:   []entity.SourceRef{{Type: entity.SourceTypeCache}},
			AskedAt:   clock.at,
		}))
	}

	turns, err := svc.ListTurns(ctx, owner, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "second", turns[0].Question)
	assert.Equal(t, []entity.SourceRef{{Type: entity.SourceTypeCache}}, turns[0].Sources)
}

func TestHistoryService_ClearHistory(t *testing.T) {
	svc, _ := newTestHistoryService(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	mine, err := svc.CreateSession(ctx, owner, "mine")
	require.NoError(t, err)
	theirs, err := svc.CreateSession(ctx, other, "theirs")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.AppendTurn(ctx, TurnRecord{UserId: owner, SessionId: mine, Question: "q", Answer: "a"}))
	}
	require.NoError(t, svc.AppendTurn(ctx, TurnRecord{UserId: other, SessionId: theirs, Question: "q", Answer: "a"}))

	deleted, err := svc.ClearHistory(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	sessions, err := svc.ListSessions(ctx, owner, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, sessions)

	turns, err := svc.GetTranscript(ctx, theirs, other)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestPageRequest_Normalize(t *testing.T) {
	assert.Equal(t, dto.PageRequest{Limit: 20}, dto.PageRequest{}.Normalize())
	assert.Equal(t, dto.PageRequest{Limit: 100}, dto.PageRequest{Limit: 1000, Offset: -3}.Normalize())
}
