package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 100, cfg.Rag.CandidateLimit)
	assert.Equal(t, 30, cfg.Rag.ContextLimit)
	assert.Equal(t, 60, cfg.Rag.RRFConstant)
	assert.Equal(t, 0.95, cfg.Cache.Threshold)
	assert.Equal(t, 10, cfg.Cache.MinAnswerLength)
	assert.Equal(t, 1024, cfg.Ai.EmbeddingDimensions)
	assert.Equal(t, 168*time.Hour, cfg.Cache.TTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RAG_CONTEXT_LIMIT", "5")
	t.Setenv("SEMCACHE_THRESHOLD", "0.9")
	t.Setenv("SEMCACHE_TTL", "0")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("PERSISTENCE_TASK_TIMEOUT", "3s")

	cfg := Load()

	assert.Equal(t, 5, cfg.Rag.ContextLimit)
	assert.Equal(t, 0.9, cfg.Cache.Threshold)
	assert.Equal(t, time.Duration(0), cfg.Cache.TTL)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Persistence.TaskTimeout)
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}
