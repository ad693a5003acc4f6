package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Load reads, expands, merges, and validates configuration from a single
// YAML file. An empty path yields the built-in defaults, validated the same
// way.
//
// Steps performed:
//  1. Read the YAML file
//  2. Expand {{.VAR}} environment references
//  3. Parse into the user Config
//  4. Merge user values over built-in defaults (non-zero wins)
//  5. Validate the merged result
func Load(_ context.Context, path string) (*Config, error) {
	log := slog.With("config_path", path)

	user := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &LoadError{File: path, Err: fmt.Errorf("%w: %s", ErrConfigNotFound, path)}
			}
			return nil, &LoadError{File: path, Err: err}
		}

		data = ExpandEnv(data)

		if err := yaml.Unmarshal(data, user); err != nil {
			return nil, &LoadError{File: path, Err: fmt.Errorf("%w: %v", ErrInvalidYAML, err)}
		}
	}

	cfg, err := resolve(user)
	if err != nil {
		return nil, err
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, err
	}

	log.Info("Configuration loaded",
		"backends", len(cfg.LLM.Backends),
		"routes", len(cfg.LLM.Routes),
		"pipeline_stages", len(cfg.Extraction.PipelineStages),
		"cascade_ranks", len(cfg.Extraction.CascadeRanks),
		"spacy_first", cfg.Extraction.SpacyFirst())

	return cfg, nil
}

// resolve merges user-provided sections over the built-in defaults. Sections
// the user omits entirely come back as pure defaults.
func resolve(user *Config) (*Config, error) {
	cfg := &Config{
		Server:     DefaultServerConfig(),
		Logging:    DefaultLoggingConfig(),
		LLM:        DefaultLLMConfig(),
		Extraction: DefaultExtractionConfig(),
		Hygiene:    DefaultHygieneConfig(),
		Research:   DefaultResearchConfig(),
		Retriever:  DefaultRetrieverConfig(),
	}

	sections := []struct {
		name string
		dst  any
		src  any
	}{
		{"server", cfg.Server, user.Server},
		{"logging", cfg.Logging, user.Logging},
		{"llm", cfg.LLM, user.LLM},
		{"extraction", cfg.Extraction, user.Extraction},
		{"hygiene", cfg.Hygiene, user.Hygiene},
		{"research", cfg.Research, user.Research},
		{"retriever", cfg.Retriever, user.Retriever},
	}

	for _, s := range sections {
		if isNilSection(s.src) {
			continue
		}
		if err := mergo.Merge(s.dst, s.src, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge %s config: %w", s.name, err)
		}
	}

	// User-supplied stage and rank lists replace the default lists wholesale.
	if user.Extraction != nil {
		if len(user.Extraction.PipelineStages) > 0 {
			cfg.Extraction.PipelineStages = user.Extraction.PipelineStages
		}
		if len(user.Extraction.CascadeRanks) > 0 {
			cfg.Extraction.CascadeRanks = user.Extraction.CascadeRanks
		}
	}

	return cfg, nil
}

func isNilSection(src any) bool {
	switch v := src.(type) {
	case *ServerConfig:
		return v == nil
	case *LoggingConfig:
		return v == nil
	case *LLMConfig:
		return v == nil
	case *ExtractionConfig:
		return v == nil
	case *HygieneConfig:
		return v == nil
	case *ResearchConfig:
		return v == nil
	case *RetrieverConfig:
		return v == nil
	default:
		return src == nil
	}
}
