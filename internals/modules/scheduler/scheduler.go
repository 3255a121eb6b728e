// Package scheduler drives periodic checks: every tick it re-reads all
// monitors, picks the due ones that are not already being checked and
// launches a check for each without waiting for it.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"pagewatch/internals/modules/monitor"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the part of the monitor store the scheduler needs.
type Store interface {
	ListMonitors(ctx context.Context) ([]monitor.Monitor, error)
	SetStatus(ctx context.Context, id uuid.UUID, status monitor.Status, lastError *string) error
	ReclaimStale(ctx context.Context, message string) (int64, error)
}

// Checker runs one check to completion, writing its outcome to the store
// before returning.
type Checker interface {
	Execute(ctx context.Context, m monitor.Monitor)
}

type Scheduler struct {
	store     Store
	checker   Checker
	guard     *Guard
	reclaimer *Reclaimer
	interval  time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	mu          sync.Mutex
	running     bool
	stopLoop    context.CancelFunc
	loopDone    chan struct{}
	checksCtx   context.Context
	abortChecks context.CancelFunc
	checks      sync.WaitGroup
}

func NewScheduler(store Store, checker Checker, interval time.Duration, logger *zerolog.Logger) *Scheduler {
	l := logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		store:     store,
		checker:   checker,
		guard:     NewGuard(),
		reclaimer: NewReclaimer(store, &l),
		interval:  interval,
		logger:    l,
		now:       time.Now,
		checksCtx: context.Background(),
	}
}

// Guard exposes the in-flight set, mainly for status endpoints and tests.
func (sc *Scheduler) Guard() *Guard {
	return sc.guard
}

// Start reclaims monitors stranded in checking and begins ticking. Calling
// Start on a running scheduler is a no-op.
func (sc *Scheduler) Start(ctx context.Context) error {
	if sc.interval <= 0 {
		return errors.New("scheduler tick interval must be > 0")
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.running {
		return nil
	}

	sc.reclaimer.Run(ctx)

	loopCtx, stopLoop := context.WithCancel(ctx)
	// checks outlive the caller's ctx so that shutdown can drain them
	sc.checksCtx, sc.abortChecks = context.WithCancel(context.WithoutCancel(ctx))
	sc.stopLoop = stopLoop
	sc.loopDone = make(chan struct{})
	sc.running = true

	go sc.run(loopCtx, sc.loopDone)

	sc.logger.Info().Dur("tick", sc.interval).Msg("scheduler started")
	return nil
}

// Stop halts ticking and waits for in-flight checks. When ctx expires first
// the remaining checks are cancelled and ctx.Err() is returned.
func (sc *Scheduler) Stop(ctx context.Context) error {
	sc.mu.Lock()
	if !sc.running {
		sc.mu.Unlock()
		return nil
	}
	sc.running = false
	sc.stopLoop()
	loopDone := sc.loopDone
	abort := sc.abortChecks
	sc.mu.Unlock()

	<-loopDone

	drained := make(chan struct{})
	go func() {
		sc.checks.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		abort()
		sc.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		abort()
		sc.logger.Warn().Int("in_flight", sc.guard.Len()).Msg("scheduler stop timed out, cancelling checks")
		return ctx.Err()
	}
}

func (sc *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sc.tick(ctx)
		}
	}
}

// tick launches a check for every due monitor that is not in flight and
// returns how many it launched. It never waits for a check.
func (sc *Scheduler) tick(ctx context.Context) int {
	monitors, err := sc.store.ListMonitors(ctx)
	if err != nil {
		sc.logger.Error().Err(err).Msg("failed to list monitors")
		return 0
	}

	now := sc.now()
	launched := 0

	for i := range monitors {
		m := monitors[i]

		if sc.guard.Contains(m.ID) || !m.IsDue(now) {
			continue
		}
		if !sc.guard.TryAcquire(m.ID) {
			continue
		}

		if err := sc.store.SetStatus(ctx, m.ID, monitor.StatusChecking, nil); err != nil {
			sc.logger.Warn().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to mark monitor checking")
		}
		m.Status = monitor.StatusChecking

		sc.launch(m)
		launched++
	}

	if launched > 0 {
		sc.logger.Debug().Int("launched", launched).Int("in_flight", sc.guard.Len()).Msg("tick")
	}
	return launched
}

func (sc *Scheduler) launch(m monitor.Monitor) {
	ctx := sc.checksCtx
	sc.checks.Add(1)

	go func() {
		defer sc.checks.Done()
		defer sc.guard.Release(m.ID)
		defer func() {
			if r := recover(); r != nil {
				sc.logger.Error().
					Interface("panic", r).
					Str("monitor_id", m.ID.String()).
					Msg("check panicked")
			}
		}()

		sc.checker.Execute(ctx, m)
	}()
}
