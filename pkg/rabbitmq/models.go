package rabbitmq

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	EventMonitorChanged        = "monitor.changed"
	EventMonitorFailed         = "monitor.failed"
	EventMonitorCheckRequested = "monitor.check_requested"
)

type EventPayload struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent wraps payload in an envelope with a fresh id.
func NewEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventPayload{
		ID:      uuid.New(),
		Type:    eventType,
		Payload: raw,
	})
}

type CheckRequest struct {
	MonitorID uuid.UUID `json:"monitor_id"`
}
