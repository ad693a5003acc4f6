// Package config loads and validates the process-wide configuration from
// graphion.yaml. Configuration is immutable after Load; components receive
// the sub-structs they need through their constructors, never by reading
// globals.
package config

import "time"

// Config is the root configuration for the whole process.
type Config struct {
	Server     *ServerConfig     `yaml:"server"`
	Logging    *LoggingConfig    `yaml:"logging"`
	LLM        *LLMConfig        `yaml:"llm"`
	Extraction *ExtractionConfig `yaml:"extraction"`
	Hygiene    *HygieneConfig    `yaml:"hygiene"`
	Research   *ResearchConfig   `yaml:"research"`
	Retriever  *RetrieverConfig  `yaml:"retriever"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// CORSOrigins lists allowed origins; empty disables CORS headers.
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string    `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// LLMConfig groups backend definitions, model routing, and usage pricing.
type LLMConfig struct {
	// DefaultBackend names the backend used when a route omits one.
	DefaultBackend string                   `yaml:"default_backend"`
	Backends       map[string]BackendConfig `yaml:"backends"`
	// Routes maps a use case to the backend/model serving it.
	Routes map[UseCase]ModelRoute `yaml:"routes"`
	// RegistryTTL bounds how long resolved routes are served from cache
	// before re-reading the table.
	RegistryTTL time.Duration `yaml:"registry_ttl"`
	// Pricing maps model name to per-million-token USD prices for the
	// cost ledger. Unpriced models record zero cost.
	Pricing map[string]ModelPricing `yaml:"pricing"`
}

// BackendConfig describes one LLM backend endpoint.
type BackendConfig struct {
	Type    BackendType `yaml:"type"`
	BaseURL string      `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the key; empty for
	// unauthenticated local runners.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	// MaxRPS caps request rate to the backend; 0 disables limiting.
	MaxRPS float64 `yaml:"max_rps,omitempty"`
	// Breaker tunes the per-backend circuit breaker.
	Breaker *BreakerConfig `yaml:"breaker,omitempty"`
}

// BreakerConfig tunes the circuit breaker guarding one backend.
type BreakerConfig struct {
	// MaxFailures is the consecutive-failure count that opens the circuit.
	MaxFailures uint32 `yaml:"max_failures"`
	// ResetTimeout is how long the circuit stays open before half-open probes.
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// ModelRoute binds a use case to a backend and model.
type ModelRoute struct {
	Backend string `yaml:"backend"`
	Model   string `yaml:"model"`
}

// ModelPricing holds per-million-token prices in USD.
type ModelPricing struct {
	InputPerMillion  float64 `yaml:"input_per_1m"`
	OutputPerMillion float64 `yaml:"output_per_1m"`
}

// ExtractionConfig controls the extraction pipeline.
type ExtractionConfig struct {
	// UseSpacyFirstPipeline selects the three-stage pipeline over the
	// legacy cascade.
	UseSpacyFirstPipeline *bool `yaml:"use_spacy_first_pipeline"`
	// UseDSPyPrompts selects the optimized universal prompt pair over the
	// legacy generic pair.
	UseDSPyPrompts *bool `yaml:"use_dspy_prompts"`
	// UseCoreference rewrites pronouns before extraction.
	UseCoreference *bool `yaml:"use_coreference"`
	// UseCrossSentence windows long texts for relation extraction.
	UseCrossSentence *bool `yaml:"use_cross_sentence"`
	// UseEntityFilter applies article/stop-word filtering in consolidation.
	UseEntityFilter *bool `yaml:"use_entity_filter"`

	// MaxConcurrentDocuments bounds process-wide parallel document
	// extractions via a weighted semaphore.
	MaxConcurrentDocuments int `yaml:"max_concurrent_documents"`
	// GleaningSteps is the number of completeness-probe rounds after the
	// initial extraction; 0 disables gleaning.
	GleaningSteps int `yaml:"gleaning_steps"`

	MaxEntitiesPerChunk  int `yaml:"max_entities_per_chunk"`
	MaxRelationsPerChunk int `yaml:"max_relations_per_chunk"`

	// CorefMaxDistance is how many sentences back the antecedent search goes.
	CorefMaxDistance int `yaml:"coref_max_distance"`
	// WindowSize and WindowOverlap shape cross-sentence windows.
	WindowSize    int `yaml:"window_size"`
	WindowOverlap int `yaml:"window_overlap"`
	// WindowMinSentences is the sentence count above which windowing kicks in.
	WindowMinSentences int `yaml:"window_min_sentences"`

	Consolidation  *ConsolidationConfig  `yaml:"consolidation"`
	PipelineStages []PipelineStageConfig `yaml:"pipeline_stages"`
	CascadeRanks   []CascadeRankConfig   `yaml:"cascade_ranks"`
}

// SpacyFirst reports the pipeline/cascade selection with its default (true).
func (c *ExtractionConfig) SpacyFirst() bool { return boolOr(c.UseSpacyFirstPipeline, true) }

// DSPyPrompts reports the prompt-pair selection with its default (true).
func (c *ExtractionConfig) DSPyPrompts() bool { return boolOr(c.UseDSPyPrompts, true) }

// Coreference reports whether coref rewriting is on (default true).
func (c *ExtractionConfig) Coreference() bool { return boolOr(c.UseCoreference, true) }

// CrossSentence reports whether windowing is on (default true).
func (c *ExtractionConfig) CrossSentence() bool { return boolOr(c.UseCrossSentence, true) }

// EntityFilter reports whether consolidation filtering is on (default true).
func (c *ExtractionConfig) EntityFilter() bool { return boolOr(c.UseEntityFilter, true) }

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// ConsolidationConfig tunes entity merge and filtering.
type ConsolidationConfig struct {
	MinNameLength int `yaml:"min_name_length"`
	// MaxNameLength rejects sentence-length strings posing as entity names.
	MaxNameLength int  `yaml:"max_name_length"`
	StripArticles bool `yaml:"strip_articles"`
	// EmbeddingDedup enables cosine-similarity dedup when an embedding
	// service is wired in.
	EmbeddingDedup     bool    `yaml:"embedding_dedup"`
	EmbeddingThreshold float64 `yaml:"embedding_threshold"`
}

// PipelineStageConfig describes one stage of the default pipeline.
type PipelineStageConfig struct {
	Stage      int         `yaml:"stage"`
	Name       string      `yaml:"name"`
	Method     StageMethod `yaml:"method"`
	Model      string      `yaml:"model,omitempty"`
	TimeoutS   int         `yaml:"timeout_s"`
	MaxRetries int         `yaml:"max_retries"`
	// FallbackToLLM is only meaningful for stage 1: on empty or failed
	// tagger output, run a single LLM entity extraction instead.
	FallbackToLLM bool `yaml:"fallback_to_llm"`
}

// Timeout returns the stage deadline; 0 means no deadline.
func (c PipelineStageConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutS) * time.Second
}

// CascadeRankConfig describes one rank of the legacy cascade.
type CascadeRankConfig struct {
	Rank   int              `yaml:"rank"`
	Model  string           `yaml:"model"`
	Method ExtractionMethod `yaml:"method"`
	// EntityTimeoutS of 0 means unbounded (rank 3 runs the tagger synchronously).
	EntityTimeoutS         int     `yaml:"entity_timeout_s"`
	RelationTimeoutS       int     `yaml:"relation_timeout_s"`
	MaxRetries             int     `yaml:"max_retries"`
	RetryBackoffMultiplier float64 `yaml:"retry_backoff_multiplier"`
}

// EntityTimeout returns the entity-extraction deadline; 0 means unbounded.
func (c CascadeRankConfig) EntityTimeout() time.Duration {
	return time.Duration(c.EntityTimeoutS) * time.Second
}

// RelationTimeout returns the relation-extraction deadline.
func (c CascadeRankConfig) RelationTimeout() time.Duration {
	return time.Duration(c.RelationTimeoutS) * time.Second
}

// HygieneConfig tunes validation and graph-store fixes.
type HygieneConfig struct {
	// EvidenceRequired promotes missing evidence spans from warning to error.
	EvidenceRequired bool `yaml:"evidence_required"`
	// DuplicateSimilarity is the cosine threshold for duplicate-entity
	// candidates during store-assisted fixes.
	DuplicateSimilarity float64 `yaml:"duplicate_similarity"`
}

// ResearchConfig tunes the research supervisor and session registry.
type ResearchConfig struct {
	MaxIterations      int           `yaml:"max_iterations"`
	Timeout            time.Duration `yaml:"timeout"`
	StepTimeout        time.Duration `yaml:"step_timeout"`
	ContextBudgetChars int           `yaml:"context_budget_chars"`
	// SufficiencyMinResults and SufficiencyMinScore form the early-stop rule.
	SufficiencyMinResults int     `yaml:"sufficiency_min_results"`
	SufficiencyMinScore   float64 `yaml:"sufficiency_min_score"`
	// Retention is how long completed sessions stay readable before eviction.
	Retention time.Duration `yaml:"retention"`
	// MaxSessions caps live registry entries.
	MaxSessions int `yaml:"max_sessions"`
}

// RetrieverConfig points the searcher at the external hybrid retriever.
type RetrieverConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// TopK is passed through to the retriever per sub-query.
	TopK int `yaml:"top_k"`
}
