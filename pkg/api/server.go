// Package api exposes the HTTP surface: the deep-research session endpoints,
// the streaming research variant, synchronous extraction, and the model
// administration endpoints.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/extract"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/research"
)

// Extractor is the slice of the extraction service the HTTP surface needs.
type Extractor interface {
	ExtractDocument(ctx context.Context, doc extract.Document) (*extract.Result, error)
}

// Server wires the HTTP handlers to the domain services.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg       *config.ServerConfig
	extractor Extractor
	research  *research.Manager
	registry  *llm.Registry
	ledger    *llm.Ledger
	logger    *slog.Logger
}

// NewServer builds the server and registers all routes.
func NewServer(cfg *config.ServerConfig, extractor Extractor, researchMgr *research.Manager, registry *llm.Registry, ledger *llm.Ledger) *Server {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}
	s := &Server{
		echo:      echo.New(),
		cfg:       cfg,
		extractor: extractor,
		research:  researchMgr,
		registry:  registry,
		ledger:    ledger,
		logger:    slog.With("component", "http_server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.Use(requestLogger())
	e.Use(securityHeaders())
	if len(s.cfg.CORSOrigins) > 0 {
		e.Use(corsMiddleware(s.cfg.CORSOrigins))
	}

	v1 := e.Group("/api/v1")
	v1.GET("/health", s.healthHandler)

	deep := v1.Group("/research/deep")
	deep.POST("", s.createResearchHandler)
	deep.GET("/:id/status", s.researchStatusHandler)
	deep.GET("/:id", s.researchResultHandler)
	deep.POST("/:id/cancel", s.cancelResearchHandler)
	deep.GET("/:id/export", s.exportResearchHandler)

	v1.POST("/research/stream", s.streamResearchHandler)

	v1.POST("/extract", s.extractHandler)

	v1.GET("/models", s.listModelsHandler)
	v1.POST("/models/invalidate", s.invalidateModelsHandler)
	v1.GET("/usage", s.usageHandler)
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.logger.Info("HTTP server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests within the configured grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP makes the server usable directly in httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
