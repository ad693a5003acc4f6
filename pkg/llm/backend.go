package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/bitmason/graphion/pkg/config"
)

// Backend is one model endpoint the gateway can call. All configured
// backend families speak the OpenAI-compatible wire format, so a single
// HTTP implementation serves local runners and cloud APIs alike.
type Backend interface {
	// Name returns the configured backend name (the provider in results).
	Name() string
	// Complete runs one chat completion and returns content plus token usage.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
	// Embed returns the embedding vector for one input text.
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// CompletionRequest is the backend-level request shape.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
}

// CompletionResult is the backend-level response shape.
type CompletionResult struct {
	Content      string
	TokensInput  int
	TokensOutput int
}

// HTTPBackend calls one OpenAI-compatible endpoint, guarded by a per-backend
// circuit breaker and an optional rate limiter.
type HTTPBackend struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewHTTPBackend builds a backend from its configuration. The API key is
// read from the environment variable the config names; a missing variable
// yields an unauthenticated client (fine for local runners).
func NewHTTPBackend(name string, cfg config.BackendConfig) *HTTPBackend {
	maxFailures := uint32(5)
	resetTimeout := 30 * time.Second
	if cfg.Breaker != nil {
		if cfg.Breaker.MaxFailures > 0 {
			maxFailures = cfg.Breaker.MaxFailures
		}
		if cfg.Breaker.ResetTimeout > 0 {
			resetTimeout = cfg.Breaker.ResetTimeout
		}
	}

	b := &HTTPBackend{
		name:    name,
		baseURL: cfg.BaseURL,
		client:  &http.Client{},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: resetTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		}),
	}
	if cfg.APIKeyEnv != "" {
		b.apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	if cfg.MaxRPS > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), 1)
	}
	return b
}

// Name returns the configured backend name.
func (b *HTTPBackend) Name() string { return b.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete runs one chat completion.
func (b *HTTPBackend) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	var parsed chatResponse
	if err := b.post(ctx, "/chat/completions", req.Model, body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, &LLMError{Provider: b.name, Model: req.Model, Err: fmt.Errorf("response contained no choices")}
	}

	return &CompletionResult{
		Content:      parsed.Choices[0].Message.Content,
		TokensInput:  parsed.Usage.PromptTokens,
		TokensOutput: parsed.Usage.CompletionTokens,
	}, nil
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for one input text.
func (b *HTTPBackend) Embed(ctx context.Context, model, text string) ([]float32, error) {
	var parsed embeddingResponse
	if err := b.post(ctx, "/embeddings", model, embeddingRequest{Model: model, Input: text}, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, &LLMError{Provider: b.name, Model: model, Err: fmt.Errorf("response contained no embeddings")}
	}
	return parsed.Data[0].Embedding, nil
}

// post sends one JSON request through the limiter and breaker, classifying
// every failure as *LLMError.
func (b *HTTPBackend) post(ctx context.Context, path, model string, body, out any) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return &LLMError{Provider: b.name, Model: model, Err: err}
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return &LLMError{Provider: b.name, Model: model, Err: err}
	}

	_, err = b.breaker.Execute(func() (any, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, &LLMError{Provider: b.name, Model: model, Err: reqErr}
		}
		req.Header.Set("Content-Type", "application/json")
		if b.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+b.apiKey)
		}

		resp, doErr := b.client.Do(req)
		if doErr != nil {
			return nil, &LLMError{Provider: b.name, Model: model, Err: doErr}
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, &LLMError{Provider: b.name, Model: model, Err: readErr}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &LLMError{
				Provider:   b.name,
				Model:      model,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", truncateBody(data)),
			}
		}
		if unmarshalErr := json.Unmarshal(data, out); unmarshalErr != nil {
			return nil, &LLMError{Provider: b.name, Model: model, Err: unmarshalErr}
		}
		return nil, nil
	})
	if err != nil {
		var le *LLMError
		if ok := asLLMError(err, &le); ok {
			return le
		}
		// Breaker-open and other breaker-internal errors.
		return &LLMError{Provider: b.name, Model: model, Err: err}
	}
	return nil
}

func asLLMError(err error, target **LLMError) bool {
	le, ok := err.(*LLMError)
	if ok {
		*target = le
	}
	return ok
}

func truncateBody(data []byte) string {
	const limit = 300
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
