package alert

import (
	"context"
	"encoding/json"
	"net/http"

	"pagewatch/pkg/apperror"
	"pagewatch/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const TestMessage = "This is a test notification from pagewatch!"

type Sender interface {
	Send(ctx context.Context, msg Notification) error
}

type TestRequest struct {
	Topic string `json:"topic" validate:"required"`
}

type Handler struct {
	sender    Sender
	validator *validator.Validate
}

func NewHandler(sender Sender, validator *validator.Validate) *Handler {
	return &Handler{
		sender:    sender,
		validator: validator,
	}
}

// POST /notifications/test
func (h *Handler) SendTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req TestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, utils.ValidationMessage(err))
		return
	}

	err := h.sender.Send(ctx, Notification{
		Topic:    req.Topic,
		Title:    "Test Notification",
		Message:  TestMessage,
		Priority: PriorityHigh,
		Tags:     TagTest,
	})
	if err != nil {
		utils.FromAppError(w, reqID, apperror.New(apperror.Dependency, "handler.alert.send_test", err).
			WithMessage("notification endpoint unavailable"))
		return
	}

	utils.WriteJSON[any](w, http.StatusOK, reqID, utils.NotificationSent, nil)
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/test", h.SendTest)
	return r
}
