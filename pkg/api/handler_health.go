package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/bitmason/graphion/pkg/version"
)

// HealthCheck is the per-component entry of the health response.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Build    version.Info           `json:"build"`
	Checks   map[string]HealthCheck `json:"checks"`
	Research map[string]int         `json:"research"`
}

// healthHandler handles GET /api/v1/health.
// Only in-process components are checked; external backends are excluded so
// an orchestrator does not restart the process over a flaky provider.
func (s *Server) healthHandler(c *echo.Context) error {
	checks := map[string]HealthCheck{
		"llm_registry": {Status: "healthy"},
	}
	if len(s.registry.Routes()) == 0 {
		checks["llm_registry"] = HealthCheck{Status: "degraded", Message: "no model routes configured"}
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:  "healthy",
		Version: version.Full(),
		Build:   version.Get(),
		Checks:  checks,
		Research: map[string]int{
			"active_sessions": s.research.ActiveCount(),
		},
	})
}
