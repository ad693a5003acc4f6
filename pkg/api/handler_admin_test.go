package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/llm"
)

func TestListModels(t *testing.T) {
	s := newTestServer(t, goodRetriever())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Routes map[string]struct {
			Backend string `json:"Backend"`
			Model   string `json:"Model"`
		} `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	route, ok := resp.Routes["synthesis"]
	require.True(t, ok)
	assert.Equal(t, "test-model", route.Model)
	assert.Equal(t, "local", route.Backend)
}

func TestInvalidateModels(t *testing.T) {
	s := newTestServer(t, goodRetriever())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/models/invalidate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalidated")
}

func TestUsage(t *testing.T) {
	s := newTestServer(t, goodRetriever())
	s.ledger.Record("openai", "gpt-4o-mini", llm.TaskKindGeneration, 1200, 300, 0.0042)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/usage", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "gpt-4o-mini")
	assert.Contains(t, body, "openai")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, goodRetriever())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Version)
	assert.Equal(t, "graphion", resp.Build.App)
	assert.NotEmpty(t, resp.Build.Commit)
	assert.Equal(t, "healthy", resp.Checks["llm_registry"].Status)
	assert.Equal(t, 0, resp.Research["active_sessions"])
}
