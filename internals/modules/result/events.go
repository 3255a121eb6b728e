package result

import (
	"time"

	"pagewatch/internals/modules/executor"
	"pagewatch/pkg/rabbitmq"

	"github.com/google/uuid"
)

// MonitorEvent is the payload published for changed and failed checks.
type MonitorEvent struct {
	MonitorID           uuid.UUID `json:"monitor_id"`
	URL                 string    `json:"url"`
	Outcome             string    `json:"outcome"`
	Fingerprint         string    `json:"fingerprint,omitempty"`
	Notified            bool      `json:"notified"`
	Error               string    `json:"error,omitempty"`
	ConsecutiveFailures int64     `json:"consecutive_failures,omitempty"`
	CheckedAt           time.Time `json:"checked_at"`
	DurationMs          int64     `json:"duration_ms"`
}

func newEventBody(eventType string, ev executor.CheckEvent, streak int64) ([]byte, error) {
	return rabbitmq.NewEvent(eventType, MonitorEvent{
		MonitorID:           ev.MonitorID,
		URL:                 ev.URL,
		Outcome:             string(ev.Outcome),
		Fingerprint:         ev.Fingerprint,
		Notified:            ev.Notified,
		Error:               ev.Error,
		ConsecutiveFailures: streak,
		CheckedAt:           ev.CheckedAt,
		DurationMs:          ev.Duration.Milliseconds(),
	})
}
