package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/research"
)

// CreateResearchRequest is the body of POST /api/v1/research/deep.
type CreateResearchRequest struct {
	Query              string `json:"query"`
	Namespace          string `json:"namespace"`
	MaxIterations      int    `json:"max_iterations"`
	TimeoutSeconds     int    `json:"timeout_seconds"`
	StepTimeoutSeconds int    `json:"step_timeout_seconds"`
}

// CancelResearchRequest is the body of POST /api/v1/research/deep/:id/cancel.
type CancelResearchRequest struct {
	Reason string `json:"reason"`
}

func (r *CreateResearchRequest) validate() error {
	if r.Query == "" {
		return config.NewValidationError("research", "query", config.ErrMissingRequiredField)
	}
	if r.MaxIterations != 0 && (r.MaxIterations < 1 || r.MaxIterations > 5) {
		return config.NewValidationError("research", "max_iterations", config.ErrInvalidValue)
	}
	if r.TimeoutSeconds != 0 && (r.TimeoutSeconds < 30 || r.TimeoutSeconds > 300) {
		return config.NewValidationError("research", "timeout_seconds", config.ErrInvalidValue)
	}
	if r.StepTimeoutSeconds != 0 && (r.StepTimeoutSeconds < 10 || r.StepTimeoutSeconds > 120) {
		return config.NewValidationError("research", "step_timeout_seconds", config.ErrInvalidValue)
	}
	return nil
}

func (r *CreateResearchRequest) startRequest() research.StartRequest {
	maxIterations := r.MaxIterations
	if maxIterations == 0 {
		maxIterations = 3
	}
	return research.StartRequest{
		Query:         r.Query,
		Namespace:     r.Namespace,
		MaxIterations: maxIterations,
		Timeout:       time.Duration(r.TimeoutSeconds) * time.Second,
		StepTimeout:   time.Duration(r.StepTimeoutSeconds) * time.Second,
	}
}

// createResearchHandler handles POST /api/v1/research/deep.
// Starts a background session and returns the pending view immediately.
func (s *Server) createResearchHandler(c *echo.Context) error {
	var req CreateResearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return mapServiceError(err)
	}

	id, err := s.research.Start(req.startRequest())
	if err != nil {
		return mapServiceError(err)
	}

	snap, err := s.research.Snapshot(id)
	if err != nil {
		return mapServiceError(err)
	}

	resp := buildResearchResponse(snap)
	resp.Status = research.StatusPending
	resp.TotalTimeMS = 0
	return c.JSON(http.StatusCreated, resp)
}

// researchStatusHandler handles GET /api/v1/research/deep/:id/status.
func (s *Server) researchStatusHandler(c *echo.Context) error {
	snap, err := s.research.Snapshot(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, buildStatusResponse(snap, time.Now()))
}

// researchResultHandler handles GET /api/v1/research/deep/:id.
func (s *Server) researchResultHandler(c *echo.Context) error {
	snap, err := s.research.Snapshot(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, buildResearchResponse(snap))
}

// cancelResearchHandler handles POST /api/v1/research/deep/:id/cancel.
// Cancelling an already-finished session succeeds without effect.
func (s *Server) cancelResearchHandler(c *echo.Context) error {
	var req CancelResearchRequest
	_ = c.Bind(&req) // reason is optional; an empty body is fine

	id := c.Param("id")
	if err := s.research.Cancel(id); err != nil {
		return mapServiceError(err)
	}

	message := "research session cancelled"
	if req.Reason != "" {
		message = "research session cancelled: " + req.Reason
	}
	s.logger.Info("Research session cancel requested", "session_id", id, "reason", req.Reason)
	return c.JSON(http.StatusOK, &CancelResponse{
		Status:  string(research.StatusCancelled),
		Message: message,
	})
}
