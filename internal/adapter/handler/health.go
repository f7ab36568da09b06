package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	visitors func() int
	checks   []HealthCheck
}

// NewHealthHandler creates a new health handler. visitors reports the number
// of live visitors and may be nil.
func NewHealthHandler(visitors func() int, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{visitors: visitors, checks: checks}
}

// Handle processes the /health endpoint.
func (h *HealthHandler) Handle(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	body := map[string]any{"status": "healthy"}
	status := http.StatusOK

	if len(h.checks) > 0 {
		results := make(map[string]string, len(h.checks))
		for _, hc := range h.checks {
			if err := hc.Check(ctx); err != nil {
				results[hc.Name] = err.Error()
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			results[hc.Name] = "ok"
		}
		body["checks"] = results
	}
	if h.visitors != nil {
		body["visitors"] = h.visitors()
	}

	return c.JSON(status, body)
}
