// Package extract implements the extraction engine: the tolerant JSON
// response parser, the stage executor with timeout/retry, the tagger-first
// pipeline and the legacy rank cascade, entity consolidation, and the
// multi-pass gleaning loop.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitmason/graphion/pkg/llm"
)

// TimeoutError marks a stage deadline breach. The retry layer treats it as
// retriable; on exhaustion the cascade falls to the next rank.
type TimeoutError struct {
	Stage   string
	Timeout time.Duration
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stage %s exceeded its %s deadline", e.Stage, e.Timeout)
}

// ParseError marks an unrecoverable model response. Strategy names the last
// extraction strategy tried; Snippet carries the head of the raw input.
type ParseError struct {
	Strategy string
	Snippet  string
}

// Error returns the formatted error message.
func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model response (last strategy: %s): %q", e.Strategy, e.Snippet)
}

const snippetLimit = 500

func newParseError(strategy, raw string) *ParseError {
	if len(raw) > snippetLimit {
		raw = raw[:snippetLimit]
	}
	return &ParseError{Strategy: strategy, Snippet: raw}
}

// retriable reports whether the stage executor may retry after err.
// Cancellation is never retriable.
func retriable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *TimeoutError
	var pe *ParseError
	return errors.As(err, &te) || errors.As(err, &pe) || llm.IsLLMError(err)
}

// errorReason names the error kind for fallback events and logs.
func errorReason(err error) string {
	var te *TimeoutError
	var pe *ParseError
	switch {
	case errors.As(err, &te):
		return "TimeoutError"
	case errors.As(err, &pe):
		return "ParseError"
	case llm.IsLLMError(err):
		return "LLMError"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	default:
		return "Internal"
	}
}
