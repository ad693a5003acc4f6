package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractionMethodIsValid(t *testing.T) {
	tests := []struct {
		name   string
		method ExtractionMethod
		valid  bool
	}{
		{"llm only", ExtractionMethodLLMOnly, true},
		{"hybrid", ExtractionMethodHybridNERLLM, true},
		{"invalid", ExtractionMethod("NER_ONLY"), false},
		{"empty", ExtractionMethod(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.method.IsValid())
		})
	}
}

func TestStageMethodIsValid(t *testing.T) {
	tests := []struct {
		name   string
		method StageMethod
		valid  bool
	}{
		{"ner only", StageMethodNEROnly, true},
		{"enrichment", StageMethodLLMEntityEnrichment, true},
		{"relations", StageMethodLLMRelationOnly, true},
		{"invalid", StageMethod("LLM_ONLY"), false},
		{"empty", StageMethod(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.method.IsValid())
		})
	}
}

func TestBackendTypeIsValid(t *testing.T) {
	tests := []struct {
		name    string
		backend BackendType
		valid   bool
	}{
		{"local", BackendTypeLocal, true},
		{"openai", BackendTypeOpenAI, true},
		{"openrouter", BackendTypeOpenRouter, true},
		{"anthropic", BackendTypeAnthropic, true},
		{"invalid", BackendType("azure"), false},
		{"empty", BackendType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.backend.IsValid())
		})
	}
}

func TestUseCaseIsValid(t *testing.T) {
	tests := []struct {
		name    string
		useCase UseCase
		valid   bool
	}{
		{"entity extraction", UseCaseEntityExtraction, true},
		{"relation extraction", UseCaseRelationExtraction, true},
		{"planner", UseCasePlanner, true},
		{"synthesis", UseCaseSynthesis, true},
		{"classifier", UseCaseClassifier, true},
		{"embedding", UseCaseEmbedding, true},
		{"invalid", UseCase("summarizer"), false},
		{"empty", UseCase(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.useCase.IsValid())
		})
	}
}
