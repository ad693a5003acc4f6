package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/config"
)

func retrieverConfig(baseURL string) *config.RetrieverConfig {
	return &config.RetrieverConfig{BaseURL: baseURL, Timeout: 2 * time.Second, TopK: 5}
}

func TestHTTPRetrieverRetrieve(t *testing.T) {
	var got retrieveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/retrieve", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(retrieveResponse{Contexts: []Context{
			{Text: "Go was designed at Google.", Score: 0.91, SourceChannel: "vector"},
			{Text: "Go compiles quickly.", Score: 0.74, SourceChannel: "lexical"},
		}})
	}))
	defer srv.Close()

	r := NewHTTPRetriever(retrieverConfig(srv.URL))

	contexts, err := r.Retrieve(context.Background(), "history of Go", "docs", IntentHybrid)
	require.NoError(t, err)
	require.Len(t, contexts, 2)

	assert.Equal(t, "history of Go", got.Query)
	assert.Equal(t, "docs", got.Namespace)
	assert.Equal(t, "hybrid", got.Intent)
	assert.Equal(t, 5, got.TopK)
	assert.Equal(t, "vector", contexts[0].SourceChannel)
	assert.InDelta(t, 0.91, contexts[0].Score, 1e-9)
}

func TestHTTPRetrieverDefaults(t *testing.T) {
	var got retrieveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(retrieveResponse{})
	}))
	defer srv.Close()

	r := NewHTTPRetriever(retrieverConfig(srv.URL))

	_, err := r.Retrieve(context.Background(), "q", "", "")
	require.NoError(t, err)
	assert.Equal(t, "default", got.Namespace)
	assert.Equal(t, IntentHybrid, got.Intent)
}

func TestHTTPRetrieverServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index rebuilding", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewHTTPRetriever(retrieverConfig(srv.URL))

	_, err := r.Retrieve(context.Background(), "q", "default", IntentHybrid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPRetrieverUnreachable(t *testing.T) {
	r := NewHTTPRetriever(retrieverConfig("http://127.0.0.1:1"))

	_, err := r.Retrieve(context.Background(), "q", "default", IntentHybrid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
