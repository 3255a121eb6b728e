package scheduler

import (
	"context"

	"pagewatch/internals/modules/monitor"

	"github.com/rs/zerolog"
)

// Reclaimer repairs monitors left in checking by a previous process that
// died mid-check. Only safe before the first tick, while nothing is in flight.
type Reclaimer struct {
	store  Store
	logger *zerolog.Logger
}

func NewReclaimer(store Store, logger *zerolog.Logger) *Reclaimer {
	return &Reclaimer{
		store:  store,
		logger: logger,
	}
}

func (r *Reclaimer) Run(ctx context.Context) {
	count, err := r.store.ReclaimStale(ctx, monitor.InterruptedMessage)
	if err != nil {
		// not fatal, the next check of each monitor resolves its status anyway
		r.logger.Error().Err(err).Msg("failed to reclaim stale checks")
		return
	}
	if count > 0 {
		r.logger.Warn().Int64("count", count).Msg("reclaimed monitors stuck in checking")
	}
}
