package artifact

import (
	"net/http"

	"pagewatch/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// GET /screenshots/{filename}
func (h *Handler) GetScreenshot(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	data, err := h.store.Read(chi.URLParam(r, "filename"))
	if err != nil {
		// invalid names map to 400, missing files to 404
		utils.FromAppError(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{filename}", h.GetScreenshot)
	return r
}
