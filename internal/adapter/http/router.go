package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/telemetry"
)

// NewRouter wires the planner endpoints. metrics may be nil.
func NewRouter(h *PlannerHandler, metrics *telemetry.Metrics, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggingMiddleware(log))
	if metrics != nil {
		r.Use(metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Get("/healthz", h.Health)

	r.Route("/schedule", func(r chi.Router) {
		r.Get("/", h.GetSchedule)
		r.Get("/base", h.GetBaseSchedule)
		r.Get("/timeline", h.GetTimeline)
	})
	r.Get("/machines", h.ListMachines)
	r.Get("/products", h.ListProducts)
	r.Get("/orders/{id}/operations", h.GetOrderOperations)

	r.Route("/commands", func(r chi.Router) {
		r.Get("/", h.ListCommands)
		r.Post("/", h.PostCommand)
		r.Post("/voice", h.PostVoiceCommand)
	})
	r.Get("/transcript", h.GetTranscript)
	r.Post("/reset", h.PostReset)

	return r
}
