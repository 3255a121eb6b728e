package app

import (
	"net/http"
	"time"

	middle "pagewatch/internals/middleware"
	"pagewatch/internals/modules/alert"
	"pagewatch/internals/modules/artifact"
	"pagewatch/internals/modules/auth"
	"pagewatch/internals/modules/monitor"
	"pagewatch/pkg/sysinfo"
	"pagewatch/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 30 * time.Second

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", c.health)

	r.Route("/api/v1", func(v1 chi.Router) {
		// screenshots are embedded by clients that cannot send a bearer token
		v1.Mount("/screenshots", artifact.Routes(c.artifactHandler))

		if c.authHandler != nil {
			v1.Mount("/auth", auth.Routes(c.authHandler))
		}

		v1.Group(func(api chi.Router) {
			if c.authMW != nil {
				api.Use(c.authMW.Handle, middle.AllowAdmin)
			}

			api.Mount("/monitors", monitor.Routes(c.monitorHandler))
			api.Mount("/notifications", alert.Routes(c.alertHandler))
		})
	})

	return r
}

type healthResponse struct {
	InFlight  int           `json:"in_flight"`
	Resources sysinfo.Usage `json:"resources"`
}

func (c *Container) health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, middleware.GetReqID(r.Context()), "ok", healthResponse{
		InFlight:  c.Scheduler.Guard().Len(),
		Resources: sysinfo.Snapshot(),
	})
}
