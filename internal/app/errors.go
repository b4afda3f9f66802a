// Package app wires configuration, history, document and script together.
package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrNoScript indicates Run was called without a script.
	ErrNoScript = errors.New("no script to run")

	// ErrInitialization indicates an initialization failure.
	ErrInitialization = errors.New("initialization failed")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "load", "run", "write")
	Target string // Target of the operation (e.g., file path)
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Err
}
