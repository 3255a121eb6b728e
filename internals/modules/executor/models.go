package executor

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeBaseline  Outcome = "baseline"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeChanged   Outcome = "changed"
	OutcomeFailed    Outcome = "failed"
)

// CheckEvent describes a finished check. It is emitted after the result has
// been written to the store.
type CheckEvent struct {
	MonitorID   uuid.UUID
	URL         string
	Outcome     Outcome
	Notified    bool
	Fingerprint string
	Error       string
	CheckedAt   time.Time
	Duration    time.Duration
}

func (e CheckEvent) Failed() bool {
	return e.Outcome == OutcomeFailed
}
