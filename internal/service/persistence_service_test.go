package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAppender struct {
	mu          sync.Mutex
	records     []TurnRecord
	failFor     map[string]bool // by question
	sawDeadline bool
	delay       time.Duration
}

func (f *fakeAppender) AppendTurn(ctx context.Context, record TurnRecord) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := ctx.Deadline(); ok {
		f.sawDeadline = true
	}
	if f.failFor[record.Question] {
		return errors.New("db down")
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeAppender) snapshot() []TurnRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TurnRecord(nil), f.records...)
}

type fakeCacheWriter struct {
	mu     sync.Mutex
	stored []CacheTask
}

func (f *fakeCacheWriter) Store(_ context.Context, vector []float32, question, answer string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, CacheTask{Vector: vector, Question: question, Answer: answer})
	return true
}

func (f *fakeCacheWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type fakeEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeEventPublisher) Publish(_ context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventPublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestPersistence(t *testing.T, history TurnAppender, cache CacheWriter, publisher EventPublisher) *PersistenceService {
	t.Helper()
	pubSub := NewPersistenceGoChannel(16, watermill.NopLogger{})
	svc := NewPersistenceService(pubSub, history, cache, publisher, time.Second, logger.NewNopLogger())
	require.NoError(t, svc.Run())
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestPersistenceService_DispatchTurn(t *testing.T) {
	history := &fakeAppender{}
	publisher := &fakeEventPublisher{}
	svc := newTestPersistence(t, history, &fakeCacheWriter{}, publisher)

	record := TurnRecord{
		Id:         uuid.New(),
		UserId:     uuid.New(),
		SessionId:  uuid.New(),
		Question:   "Ức gà có bao nhiêu protein?",
		Answer:     "Khoảng 31g trên 100g.",
		Sources:    []entity.SourceRef{{Type: entity.SourceTypeKnowledge, Id: "k1", Name: "Ức gà"}},
		Provenance: entity.ProvenanceSearch,
	}
	svc.DispatchTurn(record)

	assert.Eventually(t, func() bool { return len(history.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	got := history.snapshot()[0]
	assert.Equal(t, record.Id, got.Id)
	assert.Equal(t, record.Sources, got.Sources)
	assert.Equal(t, entity.ProvenanceSearch, got.Provenance)

	assert.Eventually(t, func() bool { return publisher.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	history.mu.Lock()
	assert.True(t, history.sawDeadline, "task context must carry a timeout")
	history.mu.Unlock()
}

func TestPersistenceService_FailedTaskIsAckedAndSkipsEvent(t *testing.T) {
	history := &fakeAppender{failFor: map[string]bool{"broken": true}}
	publisher := &fakeEventPublisher{}
	svc := newTestPersistence(t, history, &fakeCacheWriter{}, publisher)

	svc.DispatchTurn(TurnRecord{Id: uuid.New(), Question: "broken"})
	svc.DispatchTurn(TurnRecord{Id: uuid.New(), Question: "fine"})

	// The second task is only delivered once the first was acked.
	assert.Eventually(t, func() bool { return len(history.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "fine", history.snapshot()[0].Question)
	assert.Eventually(t, func() bool { return publisher.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestPersistenceService_DispatchCacheWrite(t *testing.T) {
	cache := &fakeCacheWriter{}
	svc := newTestPersistence(t, &fakeAppender{}, cache, nil)

	svc.DispatchCacheWrite(CacheTask{Vector: []float32{0.6, 0.8}, Question: "q", Answer: "a long enough answer"})

	assert.Eventually(t, func() bool { return cache.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.Equal(t, []float32{0.6, 0.8}, cache.stored[0].Vector)
}

func TestPersistenceService_CloseDrainsPendingTasks(t *testing.T) {
	history := &fakeAppender{delay: 20 * time.Millisecond}
	cache := &fakeCacheWriter{}
	pubSub := NewPersistenceGoChannel(16, watermill.NopLogger{})
	svc := NewPersistenceService(pubSub, history, cache, nil, time.Second, logger.NewNopLogger())
	require.NoError(t, svc.Run())

	// Requests still draining after the shutdown signal dispatch their writes.
	for i := 0; i < 5; i++ {
		svc.DispatchTurn(TurnRecord{Id: uuid.New(), Question: "drain"})
	}
	svc.DispatchCacheWrite(CacheTask{Vector: []float32{1, 0}, Question: "q", Answer: "a"})

	require.NoError(t, svc.Close())

	assert.Len(t, history.snapshot(), 5)
	assert.Equal(t, 1, cache.count())
}

func TestPersistenceService_DispatchAfterCloseIsDropped(t *testing.T) {
	history := &fakeAppender{}
	pubSub := NewPersistenceGoChannel(16, watermill.NopLogger{})
	svc := NewPersistenceService(pubSub, history, &fakeCacheWriter{}, nil, time.Second, logger.NewNopLogger())
	require.NoError(t, svc.Run())
	require.NoError(t, svc.Close())

	assert.NotPanics(t, func() {
		svc.DispatchTurn(TurnRecord{Id: uuid.New(), Question: "late"})
	})
	assert.Empty(t, history.snapshot())
	assert.NoError(t, svc.Close())
}
