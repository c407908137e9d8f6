package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/metrics"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TopicHistoryAppend = "history.append"
	TopicSemcacheStore = "semcache.store"

	DefaultTaskTimeout = 15 * time.Second
)

// CacheTask is a semantic cache write deferred past the response.
type CacheTask struct {
	Vector   []float32 `json:"vector"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
}

type IPersistenceDispatcher interface {
	DispatchTurn(task TurnRecord)
	DispatchCacheWrite(task CacheTask)
}

type TurnAppender interface {
	AppendTurn(ctx context.Context, record TurnRecord) error
}

type CacheWriter interface {
	Store(ctx context.Context, vector []float32, question, answer string) bool
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// PersistenceService runs history and cache writes off the request path.
// Tasks are fire-and-forget: failures are logged, counted and acked.
type PersistenceService struct {
	pubSub      *gochannel.GoChannel
	history     TurnAppender
	cache       CacheWriter
	publisher   EventPublisher
	taskTimeout time.Duration
	logger      logger.ILogger

	// ctx outlives the process signal; only Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	running bool
	closed  bool

	pending sync.WaitGroup // dispatched, not yet acked
	wg      sync.WaitGroup // consumer loops
}

// NewPersistenceGoChannel builds the in-process bus. Publish never blocks on a subscriber ack.
func NewPersistenceGoChannel(bufferSize int, wmLogger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            int64(bufferSize),
			BlockPublishUntilSubscriberAck: false,
		},
		wmLogger,
	)
}

// NewPersistenceService wires the consumers. publisher may be nil when NATS is not configured.
func NewPersistenceService(
	pubSub *gochannel.GoChannel,
	history TurnAppender,
	cache CacheWriter,
	publisher EventPublisher,
	taskTimeout time.Duration,
	logger logger.ILogger,
) *PersistenceService {
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PersistenceService{
		ctx:         ctx,
		cancel:      cancel,
		pubSub:      pubSub,
		history:     history,
		cache:       cache,
		publisher:   publisher,
		taskTimeout: taskTimeout,
		logger:      logger,
	}
}

func (s *PersistenceService) DispatchTurn(task TurnRecord) {
	s.dispatch(TopicHistoryAppend, task)
}

func (s *PersistenceService) DispatchCacheWrite(task CacheTask) {
	s.dispatch(TopicSemcacheStore, task)
}

func (s *PersistenceService) dispatch(topic string, task interface{}) {
	payload, err := json.Marshal(task)
	if err != nil {
		metrics.PersistenceTasksTotal.WithLabelValues(topic, "dropped").Inc()
		s.logger.Error("PERSISTENCE", "Failed to marshal task", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running || s.closed {
		metrics.PersistenceTasksTotal.WithLabelValues(topic, "dropped").Inc()
		s.logger.Error("PERSISTENCE", "Task dispatched while consumers are not running", map[string]interface{}{
			"topic":   topic,
			"running": s.running,
			"closed":  s.closed,
		})
		return
	}

	s.pending.Add(1)
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(topic, msg); err != nil {
		s.pending.Done()
		metrics.PersistenceTasksTotal.WithLabelValues(topic, "dropped").Inc()
		s.logger.Error("PERSISTENCE", "Failed to publish task", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
	}
}

// Run subscribes both topics. Tasks dispatched before Run are dropped.
// Subscriptions live until Close, so requests still draining after a
// shutdown signal keep their writes.
func (s *PersistenceService) Run() error {
	turns, err := s.pubSub.Subscribe(s.ctx, TopicHistoryAppend)
	if err != nil {
		return err
	}
	cacheWrites, err := s.pubSub.Subscribe(s.ctx, TopicSemcacheStore)
	if err != nil {
		return err
	}

	s.consume(turns, s.processTurn)
	s.consume(cacheWrites, s.processCacheWrite)

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	return nil
}

func (s *PersistenceService) consume(messages <-chan *message.Message, handle func(ctx context.Context, msg *message.Message)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for msg := range messages {
			// Detached: the request that produced the task is usually gone by now.
			ctx, cancel := context.WithTimeout(context.Background(), s.taskTimeout)
			handle(ctx, msg)
			cancel()
			msg.Ack()
			s.pending.Done()
		}
	}()
}

func (s *PersistenceService) processTurn(ctx context.Context, msg *message.Message) {
	var task TurnRecord
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		metrics.PersistenceTasksTotal.WithLabelValues(TopicHistoryAppend, "invalid").Inc()
		s.logger.Error("PERSISTENCE", "Failed to unmarshal turn task", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := s.history.AppendTurn(ctx, task); err != nil {
		metrics.PersistenceTasksTotal.WithLabelValues(TopicHistoryAppend, "error").Inc()
		s.logger.Error("PERSISTENCE", "Failed to append turn", map[string]interface{}{
			"session_id": task.SessionId.String(),
			"error":      err.Error(),
		})
		return
	}
	metrics.PersistenceTasksTotal.WithLabelValues(TopicHistoryAppend, "ok").Inc()

	if s.publisher == nil {
		return
	}
	evt := events.NewChatTurnRecorded(
		task.Id.String(),
		task.SessionId.String(),
		task.UserId.String(),
		string(task.Provenance),
		time.Now(),
	)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("PERSISTENCE", "Failed to publish CHAT_TURN_RECORDED event", map[string]interface{}{
			"session_id": task.SessionId.String(),
			"error":      err.Error(),
		})
	}
}

func (s *PersistenceService) processCacheWrite(ctx context.Context, msg *message.Message) {
	var task CacheTask
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		metrics.PersistenceTasksTotal.WithLabelValues(TopicSemcacheStore, "invalid").Inc()
		s.logger.Error("PERSISTENCE", "Failed to unmarshal cache task", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	// Rejections and backend errors are already logged by the cache.
	if s.cache.Store(ctx, task.Vector, task.Question, task.Answer) {
		metrics.PersistenceTasksTotal.WithLabelValues(TopicSemcacheStore, "ok").Inc()
	} else {
		metrics.PersistenceTasksTotal.WithLabelValues(TopicSemcacheStore, "skipped").Inc()
	}
}

// Close refuses new tasks, waits until every dispatched task was handled,
// then stops the bus. Call it after the HTTP server has drained.
func (s *PersistenceService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	running := s.running
	s.mu.Unlock()

	if running {
		s.pending.Wait()
	}
	s.cancel()
	err := s.pubSub.Close()
	s.wg.Wait()
	return err
}
