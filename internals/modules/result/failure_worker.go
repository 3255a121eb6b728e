package result

import (
	"context"

	"pagewatch/internals/modules/executor"
	"pagewatch/pkg/rabbitmq"
	"pagewatch/pkg/redisstore"
)

func (rp *Processor) failureWorker() {
	defer rp.workerWG.Done()

	for ev := range rp.failureChan {
		rp.handleFailure(ev)
	}
}

func (rp *Processor) handleFailure(ev executor.CheckEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	var streak int64
	if rp.status != nil {
		var err error
		streak, err = rp.status.IncrementFailures(ctx, ev.MonitorID)
		if err != nil {
			rp.logger.Error().
				Err(err).
				Str("monitor_id", ev.MonitorID.String()).
				Msg("failed to increment failure streak in redis")
		}

		snap := redisstore.Snapshot{
			Outcome:             string(ev.Outcome),
			Fingerprint:         ev.Fingerprint,
			CheckedAt:           ev.CheckedAt,
			Error:               ev.Error,
			ConsecutiveFailures: streak,
		}
		if err := rp.status.StoreStatus(ctx, ev.MonitorID, snap); err != nil {
			rp.logger.Error().
				Err(err).
				Str("monitor_id", ev.MonitorID.String()).
				Msg("failed to store status in redis")
		}
	}

	rp.publish(ctx, rabbitmq.EventMonitorFailed, ev, streak)
}
