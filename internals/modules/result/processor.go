// Package result fans finished check events out to the optional side
// channels: the redis status snapshot and the rabbitmq event stream. None
// of it is on the check path; every error here is logged and dropped.
package result

import (
	"context"
	"sync"
	"time"

	"pagewatch/config"
	"pagewatch/internals/modules/executor"
	"pagewatch/pkg/redisstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const sideEffectTimeout = 5 * time.Second

type StatusStore interface {
	StoreStatus(ctx context.Context, monitorID uuid.UUID, snap redisstore.Snapshot) error
	IncrementFailures(ctx context.Context, monitorID uuid.UUID) (int64, error)
	ClearFailures(ctx context.Context, monitorID uuid.UUID) error
}

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

type Processor struct {
	events      <-chan executor.CheckEvent
	successChan chan executor.CheckEvent
	failureChan chan executor.CheckEvent
	status      StatusStore
	publisher   Publisher
	cfg         *config.ResultConfig
	logger      zerolog.Logger
	workerWG    sync.WaitGroup
}

// NewProcessor wires the processor. status and publisher may be nil.
func NewProcessor(
	events <-chan executor.CheckEvent,
	status StatusStore,
	publisher Publisher,
	cfg *config.ResultConfig,
	logger *zerolog.Logger,
) *Processor {
	return &Processor{
		events:      events,
		status:      status,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger.With().Str("component", "result_processor").Logger(),
		successChan: make(chan executor.CheckEvent, cfg.SuccessWorkers*4),
		failureChan: make(chan executor.CheckEvent, cfg.FailureWorkers*4),
	}
}

// Start launches the workers and the router. The processor runs until the
// events channel is closed; Wait blocks until everything has drained.
func (rp *Processor) Start() {
	rp.workerWG.Add(rp.cfg.SuccessWorkers + rp.cfg.FailureWorkers)

	for range rp.cfg.SuccessWorkers {
		go rp.successWorker()
	}
	for range rp.cfg.FailureWorkers {
		go rp.failureWorker()
	}

	go rp.router()
}

func (rp *Processor) Wait() {
	rp.workerWG.Wait()
}

func (rp *Processor) router() {
	for ev := range rp.events {
		if ev.Failed() {
			rp.failureChan <- ev
		} else {
			rp.successChan <- ev
		}
	}

	close(rp.failureChan)
	close(rp.successChan)
}

func (rp *Processor) publish(ctx context.Context, eventType string, ev executor.CheckEvent, streak int64) {
	if rp.publisher == nil {
		return
	}

	body, err := newEventBody(eventType, ev, streak)
	if err != nil {
		rp.logger.Error().Err(err).Msg("failed to encode event")
		return
	}
	if err := rp.publisher.Publish(ctx, body); err != nil {
		rp.logger.Error().
			Err(err).
			Str("monitor_id", ev.MonitorID.String()).
			Str("type", eventType).
			Msg("failed to publish event")
	}
}
