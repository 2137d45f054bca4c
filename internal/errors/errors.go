// Package errors provides a lightweight structured error type (ForgeError)
// for category-based classification of build, discovery, and watch failures.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of an AssetForge error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig ErrorCategory = "config"

	// Build and processing errors
	CategoryDiscovery ErrorCategory = "discovery"
	CategoryCompile   ErrorCategory = "compile"
	CategoryWrite     ErrorCategory = "write"

	// Runtime and infrastructure errors
	CategoryWatch    ErrorCategory = "watch"
	CategoryState    ErrorCategory = "state"
	CategoryInternal ErrorCategory = "internal"
)

// ForgeError is a structured error with category and context
type ForgeError struct {
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ForgeError
type ContextFields map[string]any

// Error implements the error interface
func (e *ForgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ForgeError) WithContext(key string, value any) *ForgeError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a ForgeError with the given category and message.
func New(category ErrorCategory, message string) *ForgeError {
	return &ForgeError{Category: category, Message: message}
}

// Wrap creates a ForgeError wrapping cause.
func Wrap(cause error, category ErrorCategory, message string) *ForgeError {
	return &ForgeError{Category: category, Message: message, Cause: cause}
}

// CategoryOf returns the category of err, or CategoryInternal when err carries none.
func CategoryOf(err error) ErrorCategory {
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.Category
	}
	return CategoryInternal
}
