package config

import "time"

// DefaultServerConfig returns the built-in HTTP listener defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// DefaultLoggingConfig returns the built-in logging defaults.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  "info",
		Format: LogFormatText,
	}
}

// DefaultLLMConfig returns a single local backend with routes for every
// use case. Real deployments override models and add cloud backends.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		DefaultBackend: "local",
		Backends: map[string]BackendConfig{
			"local": {
				Type:    BackendTypeLocal,
				BaseURL: "http://localhost:11434/v1",
			},
		},
		Routes: map[UseCase]ModelRoute{
			UseCaseEntityExtraction:   {Backend: "local", Model: "qwen2.5:7b-instruct"},
			UseCaseRelationExtraction: {Backend: "local", Model: "qwen2.5:7b-instruct"},
			UseCasePlanner:            {Backend: "local", Model: "qwen2.5:14b-instruct"},
			UseCaseSynthesis:          {Backend: "local", Model: "qwen2.5:14b-instruct"},
			UseCaseClassifier:         {Backend: "local", Model: "qwen2.5:3b-instruct"},
			UseCaseEmbedding:          {Backend: "local", Model: "nomic-embed-text"},
		},
		RegistryTTL: 60 * time.Second,
	}
}

// DefaultExtractionConfig returns the built-in pipeline defaults. The five
// feature flags are left nil so their accessors report true.
func DefaultExtractionConfig() *ExtractionConfig {
	return &ExtractionConfig{
		MaxConcurrentDocuments: 4,
		GleaningSteps:          0,
		MaxEntitiesPerChunk:    50,
		MaxRelationsPerChunk:   100,
		CorefMaxDistance:       3,
		WindowSize:             3,
		WindowOverlap:          1,
		WindowMinSentences:     5,
		Consolidation:          DefaultConsolidationConfig(),
		PipelineStages:         DefaultPipelineStages(),
		CascadeRanks:           DefaultCascadeRanks(),
	}
}

// DefaultConsolidationConfig returns the built-in consolidation defaults.
func DefaultConsolidationConfig() *ConsolidationConfig {
	return &ConsolidationConfig{
		MinNameLength:      2,
		MaxNameLength:      80,
		StripArticles:      true,
		EmbeddingDedup:     false,
		EmbeddingThreshold: 0.85,
	}
}

// DefaultPipelineStages returns the three-stage tagger-first pipeline.
func DefaultPipelineStages() []PipelineStageConfig {
	return []PipelineStageConfig{
		{Stage: 1, Name: "ner_baseline", Method: StageMethodNEROnly, TimeoutS: 30, MaxRetries: 1, FallbackToLLM: true},
		{Stage: 2, Name: "llm_entity_enrichment", Method: StageMethodLLMEntityEnrichment, TimeoutS: 120, MaxRetries: 2},
		{Stage: 3, Name: "llm_relation_extraction", Method: StageMethodLLMRelationOnly, TimeoutS: 180, MaxRetries: 2},
	}
}

// DefaultCascadeRanks returns the legacy three-rank cascade: two LLM-only
// ranks on increasing model sizes, then a hybrid rank with an unbounded
// entity pass (the tagger runs synchronously) and a long relation deadline.
func DefaultCascadeRanks() []CascadeRankConfig {
	return []CascadeRankConfig{
		{Rank: 1, Model: "qwen2.5:7b-instruct", Method: ExtractionMethodLLMOnly, EntityTimeoutS: 300, RelationTimeoutS: 300, MaxRetries: 2, RetryBackoffMultiplier: 1.0},
		{Rank: 2, Model: "qwen2.5:14b-instruct", Method: ExtractionMethodLLMOnly, EntityTimeoutS: 300, RelationTimeoutS: 300, MaxRetries: 2, RetryBackoffMultiplier: 1.0},
		{Rank: 3, Model: "qwen2.5:14b-instruct", Method: ExtractionMethodHybridNERLLM, EntityTimeoutS: 0, RelationTimeoutS: 600, MaxRetries: 1, RetryBackoffMultiplier: 2.0},
	}
}

// DefaultHygieneConfig returns the built-in hygiene defaults.
func DefaultHygieneConfig() *HygieneConfig {
	return &HygieneConfig{
		EvidenceRequired:    false,
		DuplicateSimilarity: 0.85,
	}
}

// DefaultResearchConfig returns the built-in research defaults.
func DefaultResearchConfig() *ResearchConfig {
	return &ResearchConfig{
		MaxIterations:         3,
		Timeout:               180 * time.Second,
		StepTimeout:           60 * time.Second,
		ContextBudgetChars:    4000,
		SufficiencyMinResults: 5,
		SufficiencyMinScore:   0.5,
		Retention:             30 * time.Minute,
		MaxSessions:           100,
	}
}

// DefaultRetrieverConfig returns the built-in retriever client defaults.
func DefaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		BaseURL: "http://localhost:8900",
		Timeout: 15 * time.Second,
		TopK:    5,
	}
}
