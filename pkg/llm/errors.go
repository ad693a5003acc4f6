package llm

import (
	"errors"
	"fmt"
)

// LLMError is the single error kind the gateway surfaces: backend
// unreachable, non-2xx status, or deadline exceeded. The stage executor
// treats it as retriable.
type LLMError struct {
	Provider   string
	Model      string
	StatusCode int // 0 when the request never completed
	Err        error
}

// Error returns the formatted error message.
func (e *LLMError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm backend %s (model %s) returned status %d: %v", e.Provider, e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm backend %s (model %s) failed: %v", e.Provider, e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error {
	return e.Err
}

// IsLLMError reports whether err is (or wraps) an *LLMError.
func IsLLMError(err error) bool {
	var le *LLMError
	return errors.As(err, &le)
}
