package monitor

import (
	"time"

	"pagewatch/internals/modules/detector"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusChecking Status = "checking"
	StatusError    Status = "error"
)

// Wait strategies understood by the browser fetcher.
const (
	WaitLoad             = "load"
	WaitDOMContentLoaded = "domcontentloaded"
	WaitNetworkIdle0     = "networkidle0"
	WaitNetworkIdle2     = "networkidle2"
)

const (
	DefaultWaitUntil   = WaitNetworkIdle2
	DefaultWaitDelayMs = 10000
)

// InterruptedMessage is recorded for checks that never finished, e.g. after a crash.
const InterruptedMessage = "check interrupted"

type Monitor struct {
	ID       uuid.UUID
	URL      string
	Selector string

	IntervalSec     int
	Headers         map[string]string
	WaitUntil       string
	WaitDelayMs     int
	WaitForSelector string

	TriggerType detector.Kind
	TriggerText string

	NotificationTopic    string
	NotificationTemplate string

	// runtime state, written by the check executor
	LastHash       string    // empty means never successfully checked
	LastChecked    time.Time // zero means never attempted
	LastScreenshot string
	Status         Status
	LastError      string

	CreatedAt time.Time
}

// NextDue is the earliest instant the monitor should be checked again.
func (m *Monitor) NextDue() time.Time {
	var last int64
	if !m.LastChecked.IsZero() {
		last = m.LastChecked.UnixMilli()
	}
	return time.UnixMilli(last + int64(m.IntervalSec)*1000)
}

func (m *Monitor) IsDue(now time.Time) bool {
	return now.UnixMilli() >= m.NextDue().UnixMilli()
}

func (m *Monitor) Trigger() detector.Trigger {
	return detector.Trigger{Kind: m.TriggerType, Text: m.TriggerText}
}

// CheckResult is the write-back of one completed check.
type CheckResult struct {
	Fingerprint string // empty stores NULL
	CheckedAt   time.Time
	Artifact    string // empty keeps the previously stored artifact
	Status      Status
	Error       string // empty clears the stored error
}

// applyDefaults fills optional configuration the same way for create and update.
func (m *Monitor) applyDefaults() {
	if m.WaitUntil == "" {
		m.WaitUntil = DefaultWaitUntil
	}
	if m.TriggerType == "" {
		m.TriggerType = detector.KindChange
	}
	if m.TriggerType == detector.KindChange {
		m.TriggerText = ""
	}
}

func validWaitUntil(s string) bool {
	switch s {
	case WaitLoad, WaitDOMContentLoaded, WaitNetworkIdle0, WaitNetworkIdle2:
		return true
	}
	return false
}
