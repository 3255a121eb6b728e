package app

import (
	"context"

	"pagewatch/pkg/rabbitmq"
)

// StartConsumer feeds remote check requests into the monitor service. It is
// a no-op when rabbitmq is disabled.
func StartConsumer(ctx context.Context, c *Container) {
	if c.Consumer == nil {
		return
	}

	eventHandler := rabbitmq.NewEventHandler(c.monitorSvc, c.Logger)

	// Consume ranges over the delivery channel, so it gets its own goroutine
	go func() {
		if err := c.Consumer.Consume(ctx, eventHandler); err != nil {
			c.Logger.Error().
				Err(err).
				Msg("rabbitmq consumer stopped")
		}
	}()
}
