package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/bitmason/graphion/pkg/research"
)

// exportResearchHandler handles GET /api/v1/research/deep/:id/export.
// Markdown is generated deterministically from the session snapshot; PDF is a
// defined format without a compiled renderer.
func (s *Server) exportResearchHandler(c *echo.Context) error {
	format := c.QueryParam("format")
	switch format {
	case "markdown":
	case "pdf":
		return echo.NewHTTPError(http.StatusNotImplemented, "pdf export is not implemented")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be markdown or pdf")
	}

	snap, err := s.research.Snapshot(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}

	body := renderMarkdown(snap)
	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s.md", snap.ID))
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", body)
}

// renderMarkdown produces the export document. The final answer appears
// verbatim and every reported source appears exactly once.
func renderMarkdown(snap research.Snapshot) []byte {
	st := &snap.State
	var b strings.Builder

	fmt.Fprintf(&b, "# Research Report\n\n")
	fmt.Fprintf(&b, "- **Query:** %s\n", st.OriginalQuery)
	fmt.Fprintf(&b, "- **Session:** %s\n", snap.ID)
	fmt.Fprintf(&b, "- **Status:** %s\n", st.CurrentStep)
	fmt.Fprintf(&b, "- **Generated:** %s\n", snap.StartedAt.UTC().Format(time.RFC3339))
	if st.Err != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", st.Err)
	}

	if len(st.SubQueries) > 0 {
		b.WriteString("\n## Sub-questions\n\n")
		for i, q := range st.SubQueries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
	}

	b.WriteString("\n## Answer\n\n")
	if st.Synthesis != "" {
		b.WriteString(st.Synthesis)
		b.WriteString("\n")
	} else {
		b.WriteString("_No answer was produced._\n")
	}

	sources := st.TopSources(maxReportedSources)
	if len(sources) > 0 {
		b.WriteString("\n## Sources\n\n")
		for i, src := range sources {
			label := src.SourceChannel
			if label == "" {
				label = "retrieved"
			}
			fmt.Fprintf(&b, "%d. [%s | score %.2f] %s\n", i+1, label, src.Score, strings.TrimSpace(src.Text))
		}
	}

	return []byte(b.String())
}
