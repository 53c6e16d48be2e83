package mq

import (
	"encoding/json"
	"time"
)

// Event 是发布到 exchange 的统一信封
type Event struct {
	Type       string          `json:"type"`
	TraceID    string          `json:"trace_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// 用来把 payload 序列化
func NewEvent(eventType, traceID string, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:       eventType,
		TraceID:    traceID,
		OccurredAt: at,
		Data:       data,
	}, nil
}
