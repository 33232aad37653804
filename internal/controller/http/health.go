package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-threads/internal/httpx/response"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler creates a health handler checking deps on readiness
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// RegisterRoutes registers probe routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health())
	r.Get("/readyz", h.Ready())
}

// Health handles GET /healthz
func (h *HealthHandler) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	}
}

// Ready handles GET /readyz
func (h *HealthHandler) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failed := map[string]string{}
		for name, dep := range h.deps {
			if err := dep.Ping(r.Context()); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not ready",
				"failed": failed,
			})
			return
		}
		response.OK(w, map[string]string{"status": "ready"})
	}
}
