package monitor

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateMonitor)
	r.Get("/", h.ListMonitors)
	r.Get("/{monitorID}", h.GetMonitor)
	r.Put("/{monitorID}", h.UpdateMonitor)
	r.Delete("/{monitorID}", h.DeleteMonitor)
	r.Post("/{monitorID}/check", h.RequestCheck)

	return r
}

/*
- POST: /monitors  -> create monitor
	body : MonitorRequest
	resp : MonitorResponse

- GET: /monitors  -> list all monitors
	resp : ListMonitorsResponse

- GET: /monitors/{monitorID} -> monitor with cached check snapshot
	resp : MonitorResponse

- PUT: /monitors/{monitorID} -> replace configuration
	body : MonitorRequest
	resp : MonitorResponse

- DELETE: /monitors/{monitorID}

- POST: /monitors/{monitorID}/check -> due on next tick
*/
