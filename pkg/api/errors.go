package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/research"
)

// mapServiceError maps domain errors to HTTP error responses.
func mapServiceError(err error) *echo.HTTPError {
	var validErr *config.ValidationError
	if errors.As(err, &validErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, validErr.Error())
	}
	if errors.Is(err, research.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "research session not found")
	}
	if errors.Is(err, research.ErrNotCancellable) {
		return echo.NewHTTPError(http.StatusConflict, "session is not in a cancellable state")
	}
	if errors.Is(err, research.ErrTooManySessions) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many concurrent research sessions")
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
