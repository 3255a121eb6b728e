package monitor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"pagewatch/internals/modules/detector"
	"pagewatch/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StatusCache holds the last check outcome snapshot kept outside the store.
type StatusCache interface {
	GetStatus(ctx context.Context, monitorID uuid.UUID) (map[string]string, error)
	DelStatus(ctx context.Context, monitorID uuid.UUID) error
}

// MonitorCmd carries the editable configuration of a monitor.
type MonitorCmd struct {
	URL                  string
	Selector             string
	IntervalSec          int
	Headers              map[string]string
	WaitUntil            string
	WaitDelayMs          *int
	WaitForSelector      string
	TriggerType          detector.Kind
	TriggerText          string
	NotificationTopic    string
	NotificationTemplate string
}

type Service struct {
	repo           Repository
	cache          StatusCache
	minIntervalSec int
	logger         *zerolog.Logger
	now            func() time.Time
}

// NewService builds the configuration service. cache may be nil.
func NewService(repo Repository, cache StatusCache, minIntervalSec int, logger *zerolog.Logger) *Service {
	return &Service{
		repo:           repo,
		cache:          cache,
		minIntervalSec: minIntervalSec,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *Service) CreateMonitor(ctx context.Context, cmd MonitorCmd) (Monitor, error) {
	const op string = "service.monitor.create"

	m := Monitor{
		ID:        uuid.New(),
		Status:    StatusActive,
		CreatedAt: s.now(),
	}
	if err := s.apply(op, &m, cmd); err != nil {
		return Monitor{}, err
	}

	if err := s.repo.Create(ctx, &m); err != nil {
		return Monitor{}, err
	}

	s.logger.Info().
		Str("monitor_id", m.ID.String()).
		Str("url", m.URL).
		Int("interval_sec", m.IntervalSec).
		Msg("monitor created")

	return m, nil
}

// UpdateMonitor replaces the configuration; runtime state is untouched.
func (s *Service) UpdateMonitor(ctx context.Context, id uuid.UUID, cmd MonitorCmd) (Monitor, error) {
	const op string = "service.monitor.update"

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Monitor{}, err
	}
	if err := s.apply(op, &m, cmd); err != nil {
		return Monitor{}, err
	}
	if err := s.repo.Update(ctx, &m); err != nil {
		return Monitor{}, err
	}
	return m, nil
}

func (s *Service) DeleteMonitor(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.DelStatus(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("monitor_id", id.String()).Msg("failed to clear cached status")
		}
	}
	return nil
}

func (s *Service) GetMonitor(ctx context.Context, id uuid.UUID) (Monitor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListMonitors(ctx context.Context) ([]Monitor, error) {
	return s.repo.ListMonitors(ctx)
}

// StatusSnapshot returns the cached check snapshot, nil when unavailable.
func (s *Service) StatusSnapshot(ctx context.Context, id uuid.UUID) map[string]string {
	if s.cache == nil {
		return nil
	}
	snap, err := s.cache.GetStatus(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("monitor_id", id.String()).Msg("failed to read cached status")
		return nil
	}
	if len(snap) == 0 {
		return nil
	}
	return snap
}

// RequestCheck makes the monitor due on the next scheduler tick.
func (s *Service) RequestCheck(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.ResetLastChecked(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("monitor_id", id.String()).Msg("check requested")
	return nil
}

func (s *Service) apply(op string, m *Monitor, cmd MonitorCmd) error {
	if err := s.validate(op, cmd); err != nil {
		return err
	}

	m.URL = strings.TrimSpace(cmd.URL)
	m.Selector = strings.TrimSpace(cmd.Selector)
	m.IntervalSec = cmd.IntervalSec
	m.Headers = cmd.Headers
	m.WaitUntil = cmd.WaitUntil
	m.WaitDelayMs = DefaultWaitDelayMs
	if cmd.WaitDelayMs != nil {
		m.WaitDelayMs = *cmd.WaitDelayMs
	}
	m.WaitForSelector = strings.TrimSpace(cmd.WaitForSelector)
	m.TriggerType = cmd.TriggerType
	m.TriggerText = cmd.TriggerText
	m.NotificationTopic = strings.TrimSpace(cmd.NotificationTopic)
	m.NotificationTemplate = cmd.NotificationTemplate
	m.applyDefaults()

	return nil
}

func (s *Service) validate(op string, cmd MonitorCmd) error {
	u, err := url.Parse(strings.TrimSpace(cmd.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.Invalid(op, "url must be an absolute http(s) address")
	}
	if cmd.IntervalSec < s.minIntervalSec {
		return apperror.Invalid(op, fmt.Sprintf("interval_sec must be at least %d", s.minIntervalSec))
	}
	if cmd.TriggerType != "" && !cmd.TriggerType.Valid() {
		return apperror.Invalid(op, "trigger_type must be one of change, contains, missing")
	}
	if cmd.TriggerType.NeedsText() && cmd.TriggerText == "" {
		return apperror.Invalid(op, "trigger_text is required for contains and missing triggers")
	}
	if cmd.WaitUntil != "" && !validWaitUntil(cmd.WaitUntil) {
		return apperror.Invalid(op, "wait_until must be one of load, domcontentloaded, networkidle0, networkidle2")
	}
	if cmd.WaitDelayMs != nil && *cmd.WaitDelayMs < 0 {
		return apperror.Invalid(op, "wait_delay_ms must not be negative")
	}
	for k := range cmd.Headers {
		if strings.TrimSpace(k) == "" {
			return apperror.Invalid(op, "header names must not be empty")
		}
	}
	return nil
}
