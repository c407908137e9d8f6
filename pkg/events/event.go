package events

import "time"

const TypeChatTurnRecorded = "CHAT_TURN_RECORDED"

// Event is anything published on the EVENTS stream. EventType becomes the subject suffix.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewChatTurnRecorded announces a committed turn. Question and answer text stay out of the bus.
func NewChatTurnRecorded(turnId, sessionId, userId, provenance string, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeChatTurnRecorded,
		Data: map[string]interface{}{
			"turn_id":     turnId,
			"session_id":  sessionId,
			"user_id":     userId,
			"provenance":  provenance,
			"occurred_at": occurredAt.UTC().Format(time.RFC3339Nano),
		},
		OccurredAt: occurredAt,
	}
}
