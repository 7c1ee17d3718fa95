package transport

import (
	"context"
	"net/http"

	"product-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// HealthChecker reports the state of a backing dependency
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// HelloHandler serves the unauthenticated greeting and health endpoints
type HelloHandler struct {
	checks map[string]HealthChecker
}

// NewHelloHandler creates a HelloHandler. checks may be empty.
func NewHelloHandler(checks map[string]HealthChecker) *HelloHandler {
	return &HelloHandler{checks: checks}
}

// RegisterRoutes registers GET /hello and GET /health
func (h *HelloHandler) RegisterRoutes(r chi.Router) {
	r.Get("/hello", h.Hello)
	r.Get("/health", h.Health)
}

// Hello always answers with the same greeting
func (h *HelloHandler) Hello(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "hello"})
}

// Health reports ok unless a registered dependency is down
func (h *HelloHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}

	for name, check := range h.checks {
		state := check.Health(r.Context())
		body[name] = state
		if state["status"] == "down" {
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
		}
	}

	middleware.RespondWithJSON(w, status, body)
}
