package semcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/hoanghaiduong/gym-food-rag/internal/metrics"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultThreshold       = 0.95
	DefaultMinAnswerLength = 10
)

type Config struct {
	Threshold       float64
	MinAnswerLength int
	FailureMarkers  []string
}

// Cache maps question vectors to previously generated answers.
// Every backend failure degrades to "no cache effect": a miss on Lookup, false on Store.
type Cache struct {
	index          Index
	threshold      float64
	minAnswerLen   int
	failureMarkers []string
	logger         logger.ILogger

	initMu sync.Mutex
	ready  atomic.Bool
}

func New(index Index, cfg Config, logger logger.ILogger) *Cache {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MinAnswerLength <= 0 {
		cfg.MinAnswerLength = DefaultMinAnswerLength
	}
	return &Cache{
		index:          index,
		threshold:      cfg.Threshold,
		minAnswerLen:   cfg.MinAnswerLength,
		failureMarkers: cfg.FailureMarkers,
		logger:         logger,
	}
}

// ensureReady provisions the index once per successful attempt. Concurrent
// first callers wait on the mutex; a failure leaves the flag unset so the next call retries.
func (c *Cache) ensureReady(ctx context.Context) error {
	if c.ready.Load() {
		return nil
	}

	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.ready.Load() {
		return nil
	}

	if err := c.index.EnsureIndex(ctx); err != nil {
		metrics.SemcacheOperationsTotal.WithLabelValues("init", "error").Inc()
		c.logger.Warn("SEMCACHE", "Index initialization failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	metrics.SemcacheOperationsTotal.WithLabelValues("init", "ok").Inc()
	c.ready.Store(true)
	return nil
}

func (c *Cache) Ready() bool {
	return c.ready.Load()
}

// Lookup is a hit iff the nearest entry's similarity is >= the threshold.
func (c *Cache) Lookup(ctx context.Context, vector []float32) (string, bool) {
	if err := c.ensureReady(ctx); err != nil {
		return "", false
	}

	match, err := c.index.Nearest(ctx, vector)
	if err != nil {
		c.handleBackendError("lookup", err)
		return "", false
	}

	if match == nil || match.Similarity < c.threshold {
		metrics.SemcacheOperationsTotal.WithLabelValues("lookup", "miss").Inc()
		return "", false
	}

	metrics.SemcacheOperationsTotal.WithLabelValues("lookup", "hit").Inc()
	c.logger.Info("SEMCACHE", "Cache hit", map[string]interface{}{
		"entry_id":   match.ID,
		"similarity": match.Similarity,
	})
	return match.Answer, true
}

// Store inserts a new entry when the answer passes the quality gate.
func (c *Cache) Store(ctx context.Context, vector []float32, question, answer string) bool {
	if reason := c.rejectReason(answer); reason != "" {
		metrics.SemcacheOperationsTotal.WithLabelValues("store", "rejected").Inc()
		c.logger.Info("SEMCACHE", "Answer not cached", map[string]interface{}{
			"reason": reason,
		})
		return false
	}

	if err := c.ensureReady(ctx); err != nil {
		return false
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Vector:    vector,
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now(),
	}
	if err := c.index.Insert(ctx, entry); err != nil {
		c.handleBackendError("store", err)
		return false
	}

	metrics.SemcacheOperationsTotal.WithLabelValues("store", "stored").Inc()
	return true
}

// Cacheable reports whether an answer would pass the quality gate.
func (c *Cache) Cacheable(answer string) bool {
	return c.rejectReason(answer) == ""
}

func (c *Cache) rejectReason(answer string) string {
	if utf8.RuneCountInString(strings.TrimSpace(answer)) < c.minAnswerLen {
		return "too_short"
	}
	for _, marker := range c.failureMarkers {
		if marker != "" && strings.Contains(answer, marker) {
			return "failure_marker"
		}
	}
	return ""
}

func (c *Cache) handleBackendError(op string, err error) {
	if errors.Is(err, ErrIndexMissing) {
		c.ready.Store(false)
	}
	metrics.SemcacheOperationsTotal.WithLabelValues(op, "error").Inc()
	c.logger.Warn("SEMCACHE", "Backend error, continuing without cache", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
}
