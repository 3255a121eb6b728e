package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var ErrMissingMonitorID = errors.New("check request without monitor_id")

type CheckRequester interface {
	RequestCheck(ctx context.Context, id uuid.UUID) error
}

type EventHandler struct {
	service CheckRequester
	logger  *zerolog.Logger
}

func NewEventHandler(svc CheckRequester, logger *zerolog.Logger) *EventHandler {
	return &EventHandler{
		service: svc,
		logger:  logger,
	}
}

func (h *EventHandler) Handle(ctx context.Context, msg amqp091.Delivery) error {
	return h.handle(ctx, msg.Body)
}

func (h *EventHandler) handle(ctx context.Context, body []byte) error {
	var event EventPayload
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	if event.Type != EventMonitorCheckRequested {
		h.logger.Debug().Str("type", event.Type).Msg("ignoring event")
		return nil
	}

	var req CheckRequest
	if err := json.Unmarshal(event.Payload, &req); err != nil {
		return fmt.Errorf("decode check request: %w", err)
	}
	if req.MonitorID == uuid.Nil {
		return ErrMissingMonitorID
	}

	return h.service.RequestCheck(ctx, req.MonitorID)
}
