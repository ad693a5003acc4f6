// Graphion server — knowledge-graph extraction over LLM backends plus the
// deep-research HTTP API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bitmason/graphion/pkg/api"
	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/extract"
	"github.com/bitmason/graphion/pkg/hygiene"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/ner"
	"github.com/bitmason/graphion/pkg/preprocess"
	"github.com/bitmason/graphion/pkg/prompt"
	"github.com/bitmason/graphion/pkg/research"
	"github.com/bitmason/graphion/pkg/retrieval"
	"github.com/bitmason/graphion/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupLogging(cfg *config.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config",
		getEnv("GRAPHION_CONFIG", ""),
		"Path to graphion.yaml (empty uses built-in defaults)")
	flag.Parse()

	// Load .env before anything reads the environment
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, continuing with existing environment")
	}

	ctx := context.Background()

	// 1. Load configuration
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	slog.Info("Starting graphion",
		"version", version.Full(),
		"config", *configPath)

	// 2. LLM stack: routing registry, cost ledger, gateway
	registry := llm.NewRegistry(cfg.LLM)
	ledger := llm.NewLedger()
	gateway := llm.NewGateway(cfg.LLM, registry, ledger)
	slog.Info("LLM gateway initialized",
		"backends", len(cfg.LLM.Backends),
		"routes", len(cfg.LLM.Routes))

	// 3. NER taggers and coreference
	taggers := ner.NewRegistry(nil)
	coref := preprocess.NewResolver(taggers, cfg.Extraction.CorefMaxDistance, nil)

	// 4. Prompt resolution (no external domain repository by default)
	prompts := prompt.NewResolver(nil, cfg.Extraction.DSPyPrompts())

	// 5. Extraction drivers
	events := extract.LogSink{}
	executor := extract.NewExecutor(gateway, events,
		cfg.Extraction.MaxEntitiesPerChunk, cfg.Extraction.MaxRelationsPerChunk)
	consolidator := extract.NewConsolidator(cfg.Extraction.Consolidation,
		cfg.Extraction.EntityFilter(), gateway)
	pipeline := extract.NewPipeline(executor, taggers, prompts, consolidator, cfg.Extraction)
	cascade := extract.NewCascade(executor, taggers, prompts, cfg.Extraction.CascadeRanks, events)
	gleaner := extract.NewGleaner(gateway, executor,
		cfg.Extraction.CascadeRanks[0], cfg.Extraction.GleaningSteps, events)
	validator := hygiene.NewValidator(cfg.Hygiene,
		cfg.Extraction.Consolidation.MinNameLength, cfg.Extraction.Consolidation.MaxNameLength)

	extractor := extract.NewService(cfg.Extraction, coref, pipeline, cascade, gleaner, validator)
	slog.Info("Extraction service initialized",
		"spacy_first", cfg.Extraction.SpacyFirst(),
		"gleaning_steps", cfg.Extraction.GleaningSteps)

	// 6. Research supervisor over the external retriever
	retriever := retrieval.NewHTTPRetriever(cfg.Retriever)
	researchMgr := research.NewManager(gateway, retriever, cfg.Research)
	slog.Info("Research manager initialized",
		"max_iterations", cfg.Research.MaxIterations,
		"max_sessions", cfg.Research.MaxSessions)

	// 7. HTTP server
	server := api.NewServer(cfg.Server, extractor, researchMgr, registry, ledger)
	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	slog.Info("Graphion started", "addr", addr)

	// 8. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		slog.Error("HTTP server error", "error", err)
	}

	researchMgr.CancelAll()
	if err := server.Shutdown(context.Background()); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Graphion stopped")
}
