package api

import (
	"time"

	"github.com/bitmason/graphion/pkg/research"
	"github.com/bitmason/graphion/pkg/retrieval"
)

const maxReportedSources = 20

// DeepResearchResponse is the full session view returned by the create and
// result endpoints.
type DeepResearchResponse struct {
	ID                  string                        `json:"id"`
	Query               string                        `json:"query"`
	Status              research.Status               `json:"status"`
	SubQuestions        []string                      `json:"sub_questions"`
	IntermediateAnswers []research.IntermediateAnswer `json:"intermediate_answers"`
	FinalAnswer         string                        `json:"final_answer"`
	Sources             []retrieval.Context           `json:"sources"`
	ExecutionSteps      []research.ExecutionStep      `json:"execution_steps"`
	TotalTimeMS         int64                         `json:"total_time_ms"`
	CreatedAt           time.Time                     `json:"created_at"`
	Error               string                        `json:"error,omitempty"`
}

// ResearchStatusResponse is the lightweight polling view.
type ResearchStatusResponse struct {
	ID                       string                   `json:"id"`
	Status                   research.Status          `json:"status"`
	CurrentStep              research.Status          `json:"current_step"`
	ProgressPercent          int                      `json:"progress_percent"`
	EstimatedTimeRemainingMS *int64                   `json:"estimated_time_remaining_ms,omitempty"`
	ExecutionSteps           []research.ExecutionStep `json:"execution_steps"`
}

// CancelResponse acknowledges a cancel request.
type CancelResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// buildResearchResponse renders a session snapshot as the full response.
func buildResearchResponse(snap research.Snapshot) *DeepResearchResponse {
	st := &snap.State

	resp := &DeepResearchResponse{
		ID:                  snap.ID,
		Query:               st.OriginalQuery,
		Status:              st.CurrentStep,
		SubQuestions:        st.SubQueries,
		IntermediateAnswers: st.IntermediateAnswers(),
		FinalAnswer:         st.Synthesis,
		Sources:             st.TopSources(maxReportedSources),
		ExecutionSteps:      st.ExecutionSteps,
		CreatedAt:           snap.StartedAt.UTC(),
		Error:               st.Err,
	}
	if resp.SubQuestions == nil {
		resp.SubQuestions = []string{}
	}
	if resp.IntermediateAnswers == nil {
		resp.IntermediateAnswers = []research.IntermediateAnswer{}
	}
	if resp.Sources == nil {
		resp.Sources = []retrieval.Context{}
	}
	if resp.ExecutionSteps == nil {
		resp.ExecutionSteps = []research.ExecutionStep{}
	}

	end := snap.CompletedAt
	if end.IsZero() {
		end = time.Now()
	}
	if !snap.StartedAt.IsZero() {
		resp.TotalTimeMS = end.Sub(snap.StartedAt).Milliseconds()
	}
	return resp
}

// buildStatusResponse renders a session snapshot as the polling view. The ETA
// is a linear extrapolation from elapsed time and progress percent.
func buildStatusResponse(snap research.Snapshot, now time.Time) *ResearchStatusResponse {
	st := &snap.State

	resp := &ResearchStatusResponse{
		ID:              snap.ID,
		Status:          st.CurrentStep,
		CurrentStep:     st.CurrentStep,
		ProgressPercent: st.CurrentStep.ProgressPercent(),
		ExecutionSteps:  st.ExecutionSteps,
	}
	if resp.ExecutionSteps == nil {
		resp.ExecutionSteps = []research.ExecutionStep{}
	}

	percent := resp.ProgressPercent
	if percent > 0 && percent < 100 && !snap.StartedAt.IsZero() {
		elapsed := now.Sub(snap.StartedAt)
		if elapsed > 0 {
			remaining := elapsed.Milliseconds() * int64(100-percent) / int64(percent)
			resp.EstimatedTimeRemainingMS = &remaining
		}
	}
	return resp
}
