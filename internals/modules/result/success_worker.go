package result

import (
	"context"

	"pagewatch/internals/modules/executor"
	"pagewatch/pkg/rabbitmq"
	"pagewatch/pkg/redisstore"
)

func (rp *Processor) successWorker() {
	defer rp.workerWG.Done()

	for ev := range rp.successChan {
		rp.handleSuccess(ev)
	}
}

func (rp *Processor) handleSuccess(ev executor.CheckEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if rp.status != nil {
		if err := rp.status.ClearFailures(ctx, ev.MonitorID); err != nil {
			rp.logger.Error().Err(err).Str("monitor_id", ev.MonitorID.String()).Msg("failed to clear failure streak")
		}

		snap := redisstore.Snapshot{
			Outcome:     string(ev.Outcome),
			Fingerprint: ev.Fingerprint,
			CheckedAt:   ev.CheckedAt,
			Notified:    ev.Notified,
		}
		if err := rp.status.StoreStatus(ctx, ev.MonitorID, snap); err != nil {
			rp.logger.Error().Err(err).Str("monitor_id", ev.MonitorID.String()).Msg("failed to store status in redis")
		}
	}

	if ev.Outcome == executor.OutcomeChanged {
		rp.publish(ctx, rabbitmq.EventMonitorChanged, ev, 0)
	}
}
