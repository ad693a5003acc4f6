package config

import "fmt"

// ConfigValidator validates a resolved configuration with clear error
// messages. Validation is fail-fast; the first error wins.
type ConfigValidator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{cfg: cfg}
}

// ValidateAll validates every section. Cross-references (routes to backends,
// rank models) are checked after the sections they point into.
func (v *ConfigValidator) ValidateAll() error {
	if err := v.validateServer(); err != nil {
		return err
	}
	if err := v.validateLogging(); err != nil {
		return err
	}
	if err := v.validateLLM(); err != nil {
		return err
	}
	if err := v.validateExtraction(); err != nil {
		return err
	}
	if err := v.validateResearch(); err != nil {
		return err
	}
	if err := v.validateRetriever(); err != nil {
		return err
	}
	return nil
}

func (v *ConfigValidator) validateServer() error {
	s := v.cfg.Server
	if s.Port < 1 || s.Port > 65535 {
		return NewValidationError("server", "port", fmt.Errorf("%w: %d", ErrInvalidValue, s.Port))
	}
	return nil
}

func (v *ConfigValidator) validateLogging() error {
	l := v.cfg.Logging
	if l.Format != "" && !l.Format.IsValid() {
		return NewValidationError("logging", "format", fmt.Errorf("%w: %s", ErrInvalidValue, l.Format))
	}
	switch l.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return NewValidationError("logging", "level", fmt.Errorf("%w: %s", ErrInvalidValue, l.Level))
	}
	return nil
}

func (v *ConfigValidator) validateLLM() error {
	l := v.cfg.LLM
	if len(l.Backends) == 0 {
		return NewValidationError("llm", "backends", fmt.Errorf("%w: at least one backend required", ErrMissingRequiredField))
	}

	for name, b := range l.Backends {
		if !b.Type.IsValid() {
			return NewValidationError("llm", "backends."+name+".type", fmt.Errorf("%w: %s", ErrInvalidValue, b.Type))
		}
		if b.BaseURL == "" {
			return NewValidationError("llm", "backends."+name+".base_url", ErrMissingRequiredField)
		}
		if b.MaxRPS < 0 {
			return NewValidationError("llm", "backends."+name+".max_rps", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
		}
	}

	if l.DefaultBackend != "" {
		if _, ok := l.Backends[l.DefaultBackend]; !ok {
			return NewValidationError("llm", "default_backend", fmt.Errorf("backend '%s' not defined", l.DefaultBackend))
		}
	}

	for uc, route := range l.Routes {
		if !uc.IsValid() {
			return NewValidationError("llm", "routes", fmt.Errorf("%w: unknown use case '%s'", ErrInvalidValue, uc))
		}
		if route.Model == "" {
			return NewValidationError("llm", fmt.Sprintf("routes.%s.model", uc), ErrMissingRequiredField)
		}
		backend := route.Backend
		if backend == "" {
			backend = l.DefaultBackend
		}
		if _, ok := l.Backends[backend]; !ok {
			return NewValidationError("llm", fmt.Sprintf("routes.%s.backend", uc), fmt.Errorf("backend '%s' not defined", backend))
		}
	}

	if l.RegistryTTL < 0 {
		return NewValidationError("llm", "registry_ttl", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}

	return nil
}

func (v *ConfigValidator) validateExtraction() error {
	e := v.cfg.Extraction

	if e.MaxConcurrentDocuments < 1 {
		return NewValidationError("extraction", "max_concurrent_documents", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if e.GleaningSteps < 0 {
		return NewValidationError("extraction", "gleaning_steps", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	if e.WindowSize < 1 || e.WindowOverlap < 0 || e.WindowOverlap >= e.WindowSize {
		return NewValidationError("extraction", "window", fmt.Errorf("%w: need size >= 1 and 0 <= overlap < size", ErrInvalidValue))
	}

	if c := e.Consolidation; c != nil {
		if c.MinNameLength < 1 || c.MaxNameLength < c.MinNameLength {
			return NewValidationError("extraction", "consolidation", fmt.Errorf("%w: need 1 <= min_name_length <= max_name_length", ErrInvalidValue))
		}
		if c.EmbeddingThreshold < 0 || c.EmbeddingThreshold > 1 {
			return NewValidationError("extraction", "consolidation.embedding_threshold", fmt.Errorf("%w: must be in [0,1]", ErrInvalidValue))
		}
	}

	if len(e.PipelineStages) == 0 {
		return NewValidationError("extraction", "pipeline_stages", fmt.Errorf("%w: at least one stage required", ErrMissingRequiredField))
	}
	for i, st := range e.PipelineStages {
		field := fmt.Sprintf("pipeline_stages[%d]", i)
		if st.Stage < 1 || st.Stage > 3 {
			return NewValidationError("extraction", field+".stage", fmt.Errorf("%w: must be 1..3", ErrInvalidValue))
		}
		if !st.Method.IsValid() {
			return NewValidationError("extraction", field+".method", fmt.Errorf("%w: %s", ErrInvalidValue, st.Method))
		}
		if st.TimeoutS < 0 || st.MaxRetries < 0 {
			return NewValidationError("extraction", field, fmt.Errorf("%w: timeout_s and max_retries must be >= 0", ErrInvalidValue))
		}
	}

	if len(e.CascadeRanks) == 0 {
		return NewValidationError("extraction", "cascade_ranks", fmt.Errorf("%w: at least one rank required", ErrMissingRequiredField))
	}
	for i, r := range e.CascadeRanks {
		field := fmt.Sprintf("cascade_ranks[%d]", i)
		if r.Rank < 1 || r.Rank > 3 {
			return NewValidationError("extraction", field+".rank", fmt.Errorf("%w: must be 1..3", ErrInvalidValue))
		}
		if r.Model == "" {
			return NewValidationError("extraction", field+".model", ErrMissingRequiredField)
		}
		if !r.Method.IsValid() {
			return NewValidationError("extraction", field+".method", fmt.Errorf("%w: %s", ErrInvalidValue, r.Method))
		}
		if r.EntityTimeoutS < 0 || r.RelationTimeoutS <= 0 {
			return NewValidationError("extraction", field, fmt.Errorf("%w: entity_timeout_s >= 0 and relation_timeout_s > 0 required", ErrInvalidValue))
		}
		if r.MaxRetries < 0 {
			return NewValidationError("extraction", field+".max_retries", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
		}
		if r.RetryBackoffMultiplier < 1 {
			return NewValidationError("extraction", field+".retry_backoff_multiplier", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
		}
	}

	return nil
}

func (v *ConfigValidator) validateResearch() error {
	r := v.cfg.Research
	if r.MaxIterations < 1 || r.MaxIterations > 5 {
		return NewValidationError("research", "max_iterations", fmt.Errorf("%w: must be 1..5", ErrInvalidValue))
	}
	if r.ContextBudgetChars < 1 {
		return NewValidationError("research", "context_budget_chars", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if r.SufficiencyMinResults < 1 {
		return NewValidationError("research", "sufficiency_min_results", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if r.MaxSessions < 1 {
		return NewValidationError("research", "max_sessions", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	return nil
}

func (v *ConfigValidator) validateRetriever() error {
	r := v.cfg.Retriever
	if r.BaseURL == "" {
		return NewValidationError("retriever", "base_url", ErrMissingRequiredField)
	}
	if r.TopK < 1 {
		return NewValidationError("retriever", "top_k", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	return nil
}
