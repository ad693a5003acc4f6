package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bitmason/graphion/pkg/config"
)

// Generator is the narrow interface extraction and research consume. The
// concrete Gateway implements it; tests substitute function-field mocks.
type Generator interface {
	Generate(ctx context.Context, task Task) (*Result, error)
}

// Embedder produces embedding vectors for the optional similarity-based
// dedup paths. Nil is a valid value everywhere an Embedder is accepted.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Gateway routes tasks to backends and records usage into the ledger.
type Gateway struct {
	backends map[string]Backend
	registry *Registry
	ledger   *Ledger
	pricing  map[string]config.ModelPricing
	logger   *slog.Logger
}

// NewGateway builds the gateway from configured backends. Unknown backend
// names in routes surface at call time, not construction.
func NewGateway(cfg *config.LLMConfig, registry *Registry, ledger *Ledger) *Gateway {
	backends := make(map[string]Backend, len(cfg.Backends))
	for name, bc := range cfg.Backends {
		backends[name] = NewHTTPBackend(name, bc)
	}
	return &Gateway{
		backends: backends,
		registry: registry,
		ledger:   ledger,
		pricing:  cfg.Pricing,
		logger:   slog.With("component", "llm_gateway"),
	}
}

// Generate resolves the route for the task, calls the backend, and records
// usage. It fails only with *LLMError.
func (g *Gateway) Generate(ctx context.Context, task Task) (*Result, error) {
	route, err := g.resolveRoute(task)
	if err != nil {
		return nil, &LLMError{Provider: route.Backend, Model: route.Model, Err: err}
	}

	backend, ok := g.backends[route.Backend]
	if !ok {
		return nil, &LLMError{Provider: route.Backend, Model: route.Model,
			Err: fmt.Errorf("backend %q is not configured", route.Backend)}
	}

	start := time.Now()
	completion, err := backend.Complete(ctx, CompletionRequest{
		Model:        route.Model,
		SystemPrompt: task.SystemPrompt,
		Prompt:       task.Prompt,
		MaxTokens:    task.MaxTokens,
		Temperature:  task.Temperature,
	})
	latency := time.Since(start)
	if err != nil {
		g.logger.Warn("Generation failed",
			"provider", route.Backend,
			"model", route.Model,
			"task_kind", task.Kind,
			"latency_ms", latency.Milliseconds(),
			"error", err)
		return nil, err
	}

	cost := g.cost(route.Model, completion.TokensInput, completion.TokensOutput)
	g.ledger.Record(route.Backend, route.Model, task.Kind, completion.TokensInput, completion.TokensOutput, cost)

	g.logger.Debug("Generation complete",
		"provider", route.Backend,
		"model", route.Model,
		"task_kind", task.Kind,
		"tokens_in", completion.TokensInput,
		"tokens_out", completion.TokensOutput,
		"latency_ms", latency.Milliseconds())

	return &Result{
		Content:      completion.Content,
		Provider:     route.Backend,
		Model:        route.Model,
		TokensInput:  completion.TokensInput,
		TokensOutput: completion.TokensOutput,
		CostUSD:      cost,
		LatencyMS:    latency.Milliseconds(),
	}, nil
}

// Embed routes to the embedding use case's backend and model.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	route, err := g.registry.Resolve(config.UseCaseEmbedding)
	if err != nil {
		return nil, &LLMError{Err: err}
	}
	backend, ok := g.backends[route.Backend]
	if !ok {
		return nil, &LLMError{Provider: route.Backend, Model: route.Model,
			Err: fmt.Errorf("backend %q is not configured", route.Backend)}
	}
	return backend.Embed(ctx, route.Model, text)
}

// resolveRoute applies the selection order: explicit override wins, else
// the registry route for the task's use case.
func (g *Gateway) resolveRoute(task Task) (config.ModelRoute, error) {
	if task.ModelOverride != "" {
		route := config.ModelRoute{Model: task.ModelOverride}
		if task.UseCase != "" {
			if resolved, err := g.registry.Resolve(task.UseCase); err == nil {
				route.Backend = resolved.Backend
			}
		}
		if route.Backend == "" {
			route.Backend = g.defaultBackend()
		}
		return route, nil
	}
	if task.UseCase == "" {
		return config.ModelRoute{}, fmt.Errorf("task has neither model override nor use case")
	}
	return g.registry.Resolve(task.UseCase)
}

func (g *Gateway) defaultBackend() string {
	// Single-backend deployments are the common local case.
	if len(g.backends) == 1 {
		for name := range g.backends {
			return name
		}
	}
	return "local"
}

func (g *Gateway) cost(model string, tokensIn, tokensOut int) float64 {
	p, ok := g.pricing[model]
	if !ok {
		return 0
	}
	return float64(tokensIn)/1e6*p.InputPerMillion + float64(tokensOut)/1e6*p.OutputPerMillion
}
