package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/bitmason/graphion/pkg/research"
)

// StreamFrame is one SSE progress frame of the streaming research variant.
type StreamFrame struct {
	Phase        string   `json:"phase"`
	StreamID     string   `json:"stream_id,omitempty"`
	Query        string   `json:"query,omitempty"`
	SubQuestions []string `json:"sub_questions,omitempty"`
	Iteration    int      `json:"iteration,omitempty"`
	Contexts     int      `json:"contexts,omitempty"`
	Quality      string   `json:"quality,omitempty"`
	FinalAnswer  string   `json:"final_answer,omitempty"`
	Status       string   `json:"status,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// streamResearchHandler handles POST /api/v1/research/stream.
// Runs one research session synchronously, emitting SSE frames as the loop
// moves through its phases, and terminates the stream with [DONE].
func (s *Server) streamResearchHandler(c *echo.Context) error {
	var req CreateResearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return mapServiceError(err)
	}

	streamID := "stream_" + randomStreamSuffix()

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	emit := func(frame StreamFrame) {
		payload, err := json.Marshal(frame)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		_ = rc.Flush()
	}

	emit(StreamFrame{Phase: "start", StreamID: streamID, Query: req.Query})

	final := s.research.Run(c.Request().Context(), req.startRequest(), func(st research.State) {
		switch st.CurrentStep {
		case research.StatusDecomposing:
			emit(StreamFrame{Phase: "plan"})
		case research.StatusRetrieving:
			emit(StreamFrame{Phase: "search", SubQuestions: st.SubQueries, Iteration: st.Iteration + 1})
		case research.StatusAnalyzing:
			emit(StreamFrame{
				Phase:     "evaluate",
				Iteration: st.Iteration,
				Contexts:  len(st.AllContexts),
				Quality:   research.Quality(st.AllContexts),
			})
		case research.StatusSynthesizing:
			emit(StreamFrame{Phase: "synthesize", Contexts: len(st.AllContexts)})
		}
	})

	emit(StreamFrame{
		Phase:       "synthesize",
		Status:      string(final.CurrentStep),
		FinalAnswer: final.Synthesis,
		Error:       final.Err,
	})
	fmt.Fprint(w, "data: [DONE]\n\n")
	_ = rc.Flush()

	s.logger.Info("Streaming research finished", "stream_id", streamID, "status", final.CurrentStep)
	return nil
}

func randomStreamSuffix() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "000000000000"
	}
	return hex.EncodeToString(buf)
}
