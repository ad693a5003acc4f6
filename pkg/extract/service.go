package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/hygiene"
	"github.com/bitmason/graphion/pkg/kg"
	"github.com/bitmason/graphion/pkg/preprocess"
)

// Document is one extraction request.
type Document struct {
	Text           string
	Domain         string
	SourceDocument string
}

// Result is the finished output for one document.
type Result struct {
	Entities         []kg.Entity        `json:"entities"`
	Relations        []kg.Relation      `json:"relations"`
	Language         string             `json:"language"`
	CorefResolutions int                `json:"coref_resolutions"`
	Consolidation    ConsolidationStats `json:"consolidation"`
	Hygiene          hygiene.Report     `json:"hygiene"`
	DurationMS       int64              `json:"duration_ms"`
}

// Service runs the full extraction flow for one document: coreference
// rewriting, the configured driver (pipeline or cascade), optional
// gleaning, and hygiene fixes. Process-wide document parallelism is
// bounded by a weighted semaphore.
type Service struct {
	cfg       *config.ExtractionConfig
	coref     *preprocess.Resolver
	pipeline  *Pipeline
	cascade   *Cascade
	gleaner   *Gleaner
	validator *hygiene.Validator
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

// NewService wires the extraction service from its drivers.
func NewService(cfg *config.ExtractionConfig, coref *preprocess.Resolver, pipeline *Pipeline, cascade *Cascade, gleaner *Gleaner, validator *hygiene.Validator) *Service {
	parallel := int64(cfg.MaxConcurrentDocuments)
	if parallel < 1 {
		parallel = 1
	}
	return &Service{
		cfg:       cfg,
		coref:     coref,
		pipeline:  pipeline,
		cascade:   cascade,
		gleaner:   gleaner,
		validator: validator,
		sem:       semaphore.NewWeighted(parallel),
		logger:    slog.With("component", "extraction_service"),
	}
}

// ExtractDocument runs the full flow for one document. Concurrent calls
// beyond the configured parallelism wait on the semaphore (or their
// context).
func (s *Service) ExtractDocument(ctx context.Context, doc Document) (*Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	start := time.Now()

	text := doc.Text
	resolutions := 0
	if s.cfg.Coreference() && s.coref != nil {
		text, resolutions = s.coref.Resolve(text)
	}

	var (
		entities  []kg.Entity
		relations []kg.Relation
		stats     ConsolidationStats
		lang      string
		err       error
	)
	if s.cfg.SpacyFirst() {
		var res *PipelineResult
		res, err = s.pipeline.Run(ctx, text, doc.Domain, doc.SourceDocument)
		if err == nil {
			entities, relations, stats, lang = res.Entities, res.Relations, res.Stats, res.Language
		}
	} else {
		lang = preprocess.DetectLanguage(text)
		entities, err = s.cascade.ExtractEntities(ctx, text, doc.Domain, doc.SourceDocument)
		if err == nil {
			relations, err = s.cascade.ExtractRelations(ctx, text, entities, doc.Domain, doc.SourceDocument)
		}
	}
	if err != nil {
		return nil, err
	}

	if s.cfg.GleaningSteps > 0 && s.gleaner != nil {
		entities = s.gleaner.GleanEntities(ctx, text, doc.Domain, doc.SourceDocument, entities)
		relations = s.gleaner.GleanRelations(ctx, text, doc.Domain, doc.SourceDocument, entities, relations)
	}

	relations, report := s.validator.Run(entities, relations, true)

	result := &Result{
		Entities:         entities,
		Relations:        relations,
		Language:         lang,
		CorefResolutions: resolutions,
		Consolidation:    stats,
		Hygiene:          report,
		DurationMS:       time.Since(start).Milliseconds(),
	}

	s.logger.Info("Document extracted",
		"source", doc.SourceDocument,
		"entities", len(entities),
		"relations", len(relations),
		"coref_resolutions", resolutions,
		"healthy", report.IsHealthy(),
		"duration_ms", result.DurationMS)
	return result, nil
}

// ValidateDocument rejects empty input before any driver runs.
func ValidateDocument(doc Document) error {
	if strings.TrimSpace(doc.Text) == "" {
		return &config.ValidationError{Section: "extract", Field: "text", Err: config.ErrMissingRequiredField}
	}
	return nil
}
