package monitor

import (
	"time"

	"pagewatch/internals/modules/detector"
)

type MonitorRequest struct {
	URL                  string            `json:"url" validate:"required,url"`
	Selector             string            `json:"selector"`
	IntervalSec          int               `json:"interval_sec" validate:"required,gt=0"`
	Headers              map[string]string `json:"headers"`
	WaitUntil            string            `json:"wait_until" validate:"omitempty,oneof=load domcontentloaded networkidle0 networkidle2"`
	WaitDelayMs          *int              `json:"wait_delay_ms" validate:"omitempty,gte=0"`
	WaitForSelector      string            `json:"wait_for_selector"`
	TriggerType          string            `json:"trigger_type" validate:"omitempty,oneof=change contains missing"`
	TriggerText          string            `json:"trigger_text" validate:"required_if=TriggerType contains,required_if=TriggerType missing"`
	NotificationTopic    string            `json:"notification_topic"`
	NotificationTemplate string            `json:"notification_template"`
}

func (r MonitorRequest) toCmd() MonitorCmd {
	return MonitorCmd{
		URL:                  r.URL,
		Selector:             r.Selector,
		IntervalSec:          r.IntervalSec,
		Headers:              r.Headers,
		WaitUntil:            r.WaitUntil,
		WaitDelayMs:          r.WaitDelayMs,
		WaitForSelector:      r.WaitForSelector,
		TriggerType:          detector.Kind(r.TriggerType),
		TriggerText:          r.TriggerText,
		NotificationTopic:    r.NotificationTopic,
		NotificationTemplate: r.NotificationTemplate,
	}
}

type MonitorResponse struct {
	ID                   string            `json:"id"`
	URL                  string            `json:"url"`
	Selector             string            `json:"selector,omitempty"`
	IntervalSec          int               `json:"interval_sec"`
	Headers              map[string]string `json:"headers,omitempty"`
	WaitUntil            string            `json:"wait_until"`
	WaitDelayMs          int               `json:"wait_delay_ms"`
	WaitForSelector      string            `json:"wait_for_selector,omitempty"`
	TriggerType          string            `json:"trigger_type"`
	TriggerText          string            `json:"trigger_text,omitempty"`
	NotificationTopic    string            `json:"notification_topic,omitempty"`
	NotificationTemplate string            `json:"notification_template,omitempty"`
	LastHash             string            `json:"last_hash,omitempty"`
	LastChecked          *time.Time        `json:"last_checked,omitempty"`
	LastScreenshot       string            `json:"last_screenshot,omitempty"`
	Status               string            `json:"status"`
	LastError            string            `json:"last_error,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	Snapshot             map[string]string `json:"snapshot,omitempty"`
}

type ListMonitorsResponse struct {
	Count    int               `json:"count"`
	Monitors []MonitorResponse `json:"monitors"`
}

func toResponse(m *Monitor) MonitorResponse {
	resp := MonitorResponse{
		ID:                   m.ID.String(),
		URL:                  m.URL,
		Selector:             m.Selector,
		IntervalSec:          m.IntervalSec,
		Headers:              m.Headers,
		WaitUntil:            m.WaitUntil,
		WaitDelayMs:          m.WaitDelayMs,
		WaitForSelector:      m.WaitForSelector,
		TriggerType:          string(m.TriggerType),
		TriggerText:          m.TriggerText,
		NotificationTopic:    m.NotificationTopic,
		NotificationTemplate: m.NotificationTemplate,
		LastHash:             m.LastHash,
		LastScreenshot:       m.LastScreenshot,
		Status:               string(m.Status),
		LastError:            m.LastError,
		CreatedAt:            m.CreatedAt,
	}
	if !m.LastChecked.IsZero() {
		t := m.LastChecked
		resp.LastChecked = &t
	}
	return resp
}
