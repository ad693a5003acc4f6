package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// listModelsHandler handles GET /api/v1/models.
// Reports the resolved use-case → model routing table.
func (s *Server) listModelsHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"routes": s.registry.Routes(),
	})
}

// invalidateModelsHandler handles POST /api/v1/models/invalidate.
// Drops the routing cache so the next resolution re-reads configuration.
func (s *Server) invalidateModelsHandler(c *echo.Context) error {
	s.registry.Invalidate()
	s.logger.Info("Model routing cache invalidated")
	return c.JSON(http.StatusOK, map[string]string{"status": "invalidated"})
}

// usageHandler handles GET /api/v1/usage.
// Reports per-month cost-ledger aggregates.
func (s *Server) usageHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"months": s.ledger.Months(),
	})
}
