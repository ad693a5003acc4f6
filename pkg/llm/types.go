// Package llm provides the gateway over the configured model backends: a
// uniform Generate call, use-case model routing with a TTL-cached registry,
// and a monthly cost ledger. The gateway never parses model output; callers
// own interpretation of Result.Content.
package llm

import "github.com/bitmason/graphion/pkg/config"

// TaskKind classifies what the caller is doing with the model.
type TaskKind string

const (
	TaskKindExtraction     TaskKind = "extraction"
	TaskKindGeneration     TaskKind = "generation"
	TaskKindClassification TaskKind = "classification"
)

// IsValid checks if the task kind is valid.
func (k TaskKind) IsValid() bool {
	switch k {
	case TaskKindExtraction, TaskKindGeneration, TaskKindClassification:
		return true
	default:
		return false
	}
}

// Complexity is the caller's estimate of how hard the task is.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Quality is the caller's quality/latency trade-off preference.
type Quality string

const (
	QualityLow      Quality = "low"
	QualityBalanced Quality = "balanced"
	QualityMedium   Quality = "medium"
	QualityHigh     Quality = "high"
)

// Task is one generation request. Model selection is ModelOverride when set,
// otherwise the registry route for UseCase.
type Task struct {
	Kind          TaskKind
	UseCase       config.UseCase
	Prompt        string
	SystemPrompt  string
	Complexity    Complexity
	Quality       Quality
	MaxTokens     int
	Temperature   float64
	ModelOverride string
}

// Result is the gateway's answer to one Task.
type Result struct {
	Content      string
	Provider     string
	Model        string
	TokensInput  int
	TokensOutput int
	CostUSD      float64
	LatencyMS    int64
}
