// Package retrieval defines the hybrid-retriever collaborator the research
// supervisor consumes, plus the HTTP-backed default implementation.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bitmason/graphion/pkg/config"
)

// IntentHybrid is the retrieval intent the research searcher always uses:
// vector, lexical, and graph channels combined.
const IntentHybrid = "hybrid"

// Context is one retrieved passage with its ranking score and provenance.
// ResearchQuery and QueryIndex are stamped by the searcher, not the retriever.
type Context struct {
	Text          string         `json:"text"`
	Score         float64        `json:"score"`
	SourceChannel string         `json:"source_channel"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ResearchQuery string         `json:"research_query,omitempty"`
	QueryIndex    int            `json:"query_index"`
}

// Retriever is the narrow interface the research supervisor consumes. Tests
// substitute function-field mocks.
type Retriever interface {
	Retrieve(ctx context.Context, query, namespace, intent string) ([]Context, error)
}

// HTTPRetriever talks to the external hybrid retrieval service.
type HTTPRetriever struct {
	baseURL string
	topK    int
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPRetriever builds a retriever client from config.
func NewHTTPRetriever(cfg *config.RetrieverConfig) *HTTPRetriever {
	if cfg == nil {
		cfg = config.DefaultRetrieverConfig()
	}
	return &HTTPRetriever{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		topK:    cfg.TopK,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  slog.With("component", "retriever"),
	}
}

type retrieveRequest struct {
	Query     string `json:"query"`
	Namespace string `json:"namespace"`
	Intent    string `json:"intent"`
	TopK      int    `json:"top_k"`
}

type retrieveResponse struct {
	Contexts []Context `json:"contexts"`
}

// Retrieve posts one query to the retrieval service and returns its contexts.
func (r *HTTPRetriever) Retrieve(ctx context.Context, query, namespace, intent string) ([]Context, error) {
	if namespace == "" {
		namespace = "default"
	}
	if intent == "" {
		intent = IntentHybrid
	}

	body, err := json.Marshal(retrieveRequest{
		Query:     query,
		Namespace: namespace,
		Intent:    intent,
		TopK:      r.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding retrieve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building retrieve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, fmt.Errorf("retrieval service returned status %d: %s", resp.StatusCode, snippet)
	}

	var decoded retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding retrieve response: %w", err)
	}

	r.logger.Debug("Retrieved contexts", "query", query, "namespace", namespace, "count", len(decoded.Contexts))
	return decoded.Contexts, nil
}
