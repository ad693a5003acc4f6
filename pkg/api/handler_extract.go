package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/bitmason/graphion/pkg/extract"
)

// ExtractRequest is the body of POST /api/v1/extract.
type ExtractRequest struct {
	Text           string `json:"text"`
	Domain         string `json:"domain"`
	SourceDocument string `json:"source_document"`
}

// extractHandler handles POST /api/v1/extract.
// Runs the full extraction flow synchronously and returns the graph fragment.
func (s *Server) extractHandler(c *echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doc := extract.Document{
		Text:           req.Text,
		Domain:         req.Domain,
		SourceDocument: req.SourceDocument,
	}
	if err := extract.ValidateDocument(doc); err != nil {
		return mapServiceError(err)
	}

	result, err := s.extractor.ExtractDocument(c.Request().Context(), doc)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, result)
}
