package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewChatTurnRecorded(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	e := NewChatTurnRecorded("t1", "s1", "u1", "search", at)

	assert.Equal(t, TypeChatTurnRecorded, e.EventType())
	assert.Equal(t, at, e.Timestamp())
	assert.Equal(t, "s1", e.Payload()["session_id"])
	assert.Equal(t, "search", e.Payload()["provenance"])
	assert.Equal(t, "2026-03-01T08:30:00Z", e.Payload()["occurred_at"])
	assert.NotContains(t, e.Payload(), "question")
}
