package config

// ExtractionMethod defines how a cascade rank extracts entities and relations.
type ExtractionMethod string

const (
	// ExtractionMethodLLMOnly extracts entities and relations with the LLM alone.
	ExtractionMethodLLMOnly ExtractionMethod = "LLM_ONLY"
	// ExtractionMethodHybridNERLLM runs the deterministic tagger for entities
	// and the LLM for relations.
	ExtractionMethodHybridNERLLM ExtractionMethod = "HYBRID_NER_LLM"
)

// IsValid checks if the extraction method is valid.
func (m ExtractionMethod) IsValid() bool {
	return m == ExtractionMethodLLMOnly || m == ExtractionMethodHybridNERLLM
}

// StageMethod defines what a pipeline stage does.
type StageMethod string

const (
	// StageMethodNEROnly runs the deterministic tagger baseline.
	StageMethodNEROnly StageMethod = "SPACY_NER_ONLY"
	// StageMethodLLMEntityEnrichment asks the LLM for entity kinds the tagger misses.
	StageMethodLLMEntityEnrichment StageMethod = "LLM_ENTITY_ENRICHMENT"
	// StageMethodLLMRelationOnly asks the LLM for relations over consolidated entities.
	StageMethodLLMRelationOnly StageMethod = "LLM_RELATION_ONLY"
)

// IsValid checks if the stage method is valid.
func (m StageMethod) IsValid() bool {
	switch m {
	case StageMethodNEROnly, StageMethodLLMEntityEnrichment, StageMethodLLMRelationOnly:
		return true
	default:
		return false
	}
}

// BackendType defines supported LLM backend families. All speak the
// OpenAI-compatible chat completions wire format.
type BackendType string

const (
	// BackendTypeLocal is a single-host local model runner (ollama, vllm, lmstudio).
	BackendTypeLocal BackendType = "local"
	// BackendTypeOpenAI is the OpenAI API.
	BackendTypeOpenAI BackendType = "openai"
	// BackendTypeOpenRouter is the OpenRouter aggregation API.
	BackendTypeOpenRouter BackendType = "openrouter"
	// BackendTypeAnthropic is the Anthropic API via its OpenAI-compatible endpoint.
	BackendTypeAnthropic BackendType = "anthropic"
)

// IsValid checks if the backend type is valid.
func (t BackendType) IsValid() bool {
	switch t {
	case BackendTypeLocal, BackendTypeOpenAI, BackendTypeOpenRouter, BackendTypeAnthropic:
		return true
	default:
		return false
	}
}

// UseCase identifies the routing key for model selection.
type UseCase string

const (
	UseCaseEntityExtraction   UseCase = "entity_extraction"
	UseCaseRelationExtraction UseCase = "relation_extraction"
	UseCasePlanner            UseCase = "planner"
	UseCaseSynthesis          UseCase = "synthesis"
	UseCaseClassifier         UseCase = "classifier"
	UseCaseEmbedding          UseCase = "embedding"
)

// IsValid checks if the use case is valid.
func (u UseCase) IsValid() bool {
	switch u {
	case UseCaseEntityExtraction,
		UseCaseRelationExtraction,
		UseCasePlanner,
		UseCaseSynthesis,
		UseCaseClassifier,
		UseCaseEmbedding:
		return true
	default:
		return false
	}
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// IsValid checks if the log format is valid.
func (f LogFormat) IsValid() bool {
	return f == LogFormatText || f == LogFormatJSON
}
