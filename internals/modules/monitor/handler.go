package monitor

import (
	"encoding/json"
	"net/http"
	"pagewatch/pkg/apperror"
	"pagewatch/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

func (h *Handler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	req, ok := h.decode(w, r, reqID)
	if !ok {
		return
	}

	m, err := h.service.CreateMonitor(ctx, req.toCmd())
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, reqID, utils.MonitorCreated, toResponse(&m))
}

func (h *Handler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, ok := monitorIDParam(w, r, reqID)
	if !ok {
		return
	}

	m, err := h.service.GetMonitor(ctx, monitorID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	resp := toResponse(&m)
	resp.Snapshot = h.service.StatusSnapshot(ctx, monitorID)

	utils.WriteJSON(w, http.StatusOK, reqID, utils.MonitorFetched, resp)
}

func (h *Handler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitors, err := h.service.ListMonitors(ctx)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	resp := ListMonitorsResponse{
		Count:    len(monitors),
		Monitors: make([]MonitorResponse, 0, len(monitors)),
	}
	for i := range monitors {
		resp.Monitors = append(resp.Monitors, toResponse(&monitors[i]))
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.MonitorsFetched, resp)
}

// PUT /monitors/{monitorID}
func (h *Handler) UpdateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, ok := monitorIDParam(w, r, reqID)
	if !ok {
		return
	}
	req, ok := h.decode(w, r, reqID)
	if !ok {
		return
	}

	m, err := h.service.UpdateMonitor(ctx, monitorID, req.toCmd())
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.MonitorUpdated, toResponse(&m))
}

func (h *Handler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, ok := monitorIDParam(w, r, reqID)
	if !ok {
		return
	}

	if err := h.service.DeleteMonitor(ctx, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON[any](w, http.StatusOK, reqID, utils.MonitorDeleted, nil)
}

// POST /monitors/{monitorID}/check
func (h *Handler) RequestCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, ok := monitorIDParam(w, r, reqID)
	if !ok {
		return
	}

	if err := h.service.RequestCheck(ctx, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON[any](w, http.StatusAccepted, reqID, utils.MonitorCheckRequested, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, reqID string) (MonitorRequest, bool) {
	// decode request body
	var req MonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return MonitorRequest{}, false
	}

	// validate request body
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, utils.ValidationMessage(err))
		return MonitorRequest{}, false
	}
	return req, true
}

func monitorIDParam(w http.ResponseWriter, r *http.Request, reqID string) (uuid.UUID, bool) {
	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return uuid.Nil, false
	}
	return monitorID, true
}
