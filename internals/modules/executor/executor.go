// Package executor runs a single check for one monitor: fetch, compare,
// notify when warranted and write the outcome back. Every invocation ends
// with the monitor out of the checking state.
package executor

import (
	"context"
	"fmt"
	"time"

	"pagewatch/internals/modules/alert"
	"pagewatch/internals/modules/detector"
	"pagewatch/internals/modules/fetcher"
	"pagewatch/internals/modules/monitor"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	writeTimeout  = 10 * time.Second
	writeAttempts = 3
	writeBackoff  = 200 * time.Millisecond
)

type Store interface {
	RecordCheckResult(ctx context.Context, id uuid.UUID, res monitor.CheckResult) error
}

type ArtifactReader interface {
	Read(name string) ([]byte, error)
}

type Executor struct {
	fetcher   fetcher.Fetcher
	notifier  alert.Sender
	store     Store
	artifacts ArtifactReader
	events    chan<- CheckEvent
	logger    zerolog.Logger
	now       func() time.Time
}

// NewExecutor wires a check executor. artifacts and events may be nil.
func NewExecutor(
	f fetcher.Fetcher,
	notifier alert.Sender,
	store Store,
	artifacts ArtifactReader,
	events chan<- CheckEvent,
	logger *zerolog.Logger,
) *Executor {
	return &Executor{
		fetcher:   f,
		notifier:  notifier,
		store:     store,
		artifacts: artifacts,
		events:    events,
		logger:    logger.With().Str("component", "executor").Logger(),
		now:       time.Now,
	}
}

// Execute performs one attempt. It never returns an error: failures are
// recorded on the monitor as status error.
func (e *Executor) Execute(ctx context.Context, m monitor.Monitor) {
	start := e.now()
	log := e.logger.With().Str("monitor_id", m.ID.String()).Str("url", m.URL).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("check aborted")
			e.fail(ctx, &m, start, fmt.Sprintf("unexpected error: %v", r), &log)
		}
	}()

	res, err := e.fetcher.Fetch(ctx, fetcher.RequestFor(&m))
	if err != nil {
		log.Warn().Err(err).Msg("fetch failed")
		e.fail(ctx, &m, start, "failed to load page: "+err.Error(), &log)
		return
	}

	decision := detector.Evaluate(m.LastHash, res.Content, m.Trigger())
	checkedAt := e.now()

	notified := false
	if decision.Notify {
		notified = e.notify(ctx, &m, res.Artifact, checkedAt, &log)
	}

	err = e.record(ctx, m.ID, monitor.CheckResult{
		Fingerprint: decision.Fingerprint,
		CheckedAt:   checkedAt,
		Artifact:    res.Artifact,
		Status:      monitor.StatusActive,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to record check result")
	}

	outcome := outcomeOf(decision)
	log.Info().
		Str("outcome", string(outcome)).
		Bool("notified", notified).
		Dur("took", e.now().Sub(start)).
		Msg("check completed")

	e.emit(CheckEvent{
		MonitorID:   m.ID,
		URL:         m.URL,
		Outcome:     outcome,
		Notified:    notified,
		Fingerprint: decision.Fingerprint,
		CheckedAt:   checkedAt,
		Duration:    e.now().Sub(start),
	})
}

// fail records status error while keeping the last known fingerprint.
func (e *Executor) fail(ctx context.Context, m *monitor.Monitor, start time.Time, msg string, log *zerolog.Logger) {
	checkedAt := e.now()

	err := e.record(ctx, m.ID, monitor.CheckResult{
		Fingerprint: m.LastHash,
		CheckedAt:   checkedAt,
		Status:      monitor.StatusError,
		Error:       msg,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to record check failure")
	}

	e.emit(CheckEvent{
		MonitorID:   m.ID,
		URL:         m.URL,
		Outcome:     OutcomeFailed,
		Fingerprint: m.LastHash,
		Error:       msg,
		CheckedAt:   checkedAt,
		Duration:    e.now().Sub(start),
	})
}

// notify sends the change notification. Errors are logged and reported as
// false, they never affect the check outcome.
func (e *Executor) notify(ctx context.Context, m *monitor.Monitor, artifactName string, at time.Time, log *zerolog.Logger) bool {
	if m.NotificationTopic == "" || e.notifier == nil {
		log.Debug().Msg("change detected, no notification topic configured")
		return false
	}

	n := alert.Notification{
		Topic:    m.NotificationTopic,
		Title:    alert.ChangeTitle(m.URL),
		Message:  alert.Render(m.NotificationTemplate, m.URL, m.Selector, at),
		Priority: alert.PriorityHigh,
		Tags:     alert.TagChange,
	}

	if artifactName != "" && e.artifacts != nil {
		data, err := e.artifacts.Read(artifactName)
		if err != nil {
			log.Warn().Err(err).Str("artifact", artifactName).Msg("sending notification without screenshot")
		} else {
			n.Attachment = data
		}
	}

	if err := e.notifier.Send(ctx, n); err != nil {
		log.Error().Err(err).Str("topic", m.NotificationTopic).Msg("failed to send notification")
		return false
	}

	log.Info().Str("topic", m.NotificationTopic).Msg("notification sent")
	return true
}

// record writes the result even when ctx has been cancelled, so that an
// aborted check still leaves the checking state.
func (e *Executor) record(ctx context.Context, id uuid.UUID, res monitor.CheckResult) error {
	base := context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		wctx, cancel := context.WithTimeout(base, writeTimeout)
		err = e.store.RecordCheckResult(wctx, id, res)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < writeAttempts {
			time.Sleep(writeBackoff * time.Duration(attempt))
		}
	}
	return err
}

func (e *Executor) emit(ev CheckEvent) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.logger.Warn().Str("monitor_id", ev.MonitorID.String()).Msg("check event buffer full, dropping event")
	}
}

func outcomeOf(d detector.Decision) Outcome {
	switch {
	case d.Baseline:
		return OutcomeBaseline
	case d.Changed:
		return OutcomeChanged
	default:
		return OutcomeUnchanged
	}
}
