// ABOUTME: Error taxonomy for the orchestration engine
// ABOUTME: Distinguishes recoverable tool faults from request-fatal failures
package engine

import "errors"

// ErrToolLoopExceeded indicates the model kept requesting tools past the
// configured round bound. Fatal to the current request only: prior turns
// remain valid and persisted.
var ErrToolLoopExceeded = errors.New("tool call loop exceeded maximum rounds")

// ErrEmptyMessage indicates a blank user message was submitted.
var ErrEmptyMessage = errors.New("message cannot be empty")
