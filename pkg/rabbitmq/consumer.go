package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const handleTimeout = 5 * time.Second

type Consumer struct {
	ch          *amqp091.Channel
	queueName   string
	sem         chan struct{}
	wg          sync.WaitGroup
	consumerTag string
	logger      zerolog.Logger
}

func NewConsumer(conn *amqp091.Connection, queueName string, workers int, logger *zerolog.Logger) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("AMQP connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	// Backpressure
	if err := ch.Qos(workers, 0, false); err != nil {
		ch.Close()
		return nil, err
	}

	return &Consumer{
		ch:          ch,
		queueName:   queueName,
		sem:         make(chan struct{}, workers),
		consumerTag: uuid.NewString(),
		logger:      logger.With().Str("component", "rabbitmq_consumer").Str("queue", queueName).Logger(),
	}, nil
}

// Consume blocks until the delivery channel closes, which happens after ctx
// is cancelled or the connection drops.
func (c *Consumer) Consume(ctx context.Context, handler *EventHandler) error {
	msgs, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = c.ch.Cancel(c.consumerTag, false) // stop new deliveries
	}()

	c.logger.Info().Msg("consuming")

	for msg := range msgs {
		c.sem <- struct{}{}
		c.wg.Add(1)

		go func(m amqp091.Delivery) {
			defer c.wg.Done()
			defer func() { <-c.sem }()

			msgCtx, cancel := context.WithTimeout(ctx, handleTimeout)
			defer cancel()

			if err := handler.Handle(msgCtx, m); err != nil {
				c.logger.Error().Err(err).Str("message_id", m.MessageId).Msg("message failed")
				_ = m.Nack(false, false)
				return
			}

			_ = m.Ack(false)
		}(msg)
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Shutdown(ctx context.Context) error {
	// stop deliveries if not already stopped
	_ = c.ch.Cancel(c.consumerTag, false)

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return c.ch.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
