// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateInvariant   = errors.New("state invariant violation")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")
	ErrKeyLocked              = errors.New("key is locked by another writer")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "milestone", "assessment"
	Op      string // Operation that failed, e.g., "Fold", "Evaluate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Progress domain errors
var (
	ErrProgressNotFound    = NewDomainError("progress", "Find", ErrNotFound, "progress record not found")
	ErrUnknownActivityKind = NewDomainError("progress", "Normalize", ErrValidation, "unknown activity kind")
	ErrInvalidActivityDate = NewDomainError("progress", "Normalize", ErrValidation, "activity date is missing or invalid")
	ErrNegativeXP          = NewDomainError("progress", "Apply", ErrStateInvariant, "progress record has negative XP")
	ErrCorruptHeatmap      = NewDomainError("progress", "Apply", ErrStateInvariant, "heatmap contains duplicate or out-of-range entries")
)

// Milestone domain errors
var (
	ErrUnknownCategory  = NewDomainError("milestone", "Detect", ErrInvalidInput, "unknown milestone category")
	ErrCatalogCorrupted = NewDomainError("milestone", "Catalog", ErrInvalidState, "threshold catalog is not strictly increasing")
)

// Assessment domain errors
var (
	ErrTestNotFound          = NewDomainError("assessment", "Find", ErrNotFound, "test definition not found")
	ErrUnknownTestKind       = NewDomainError("assessment", "Evaluate", ErrValidation, "unknown test kind")
	ErrUnknownQuestionAnswer = NewDomainError("assessment", "Evaluate", ErrValidation, "answer references a non-existent question")
	ErrMissingDeliverable    = NewDomainError("assessment", "Evaluate", ErrValidation, "project submission has no deliverable attached")
	ErrRequiredIncomplete    = NewDomainError("assessment", "Evaluate", ErrValidation, "required project requirement is incomplete")
	ErrEmptyTestDefinition   = NewDomainError("assessment", "Validate", ErrValidation, "test definition has no scorable units")
)

// Diagnostic domain errors
var (
	ErrDiagnosticNotFound = NewDomainError("diagnostic", "Find", ErrNotFound, "diagnostic definition not found")
	ErrAnalysisNotFound   = NewDomainError("diagnostic", "Find", ErrNotFound, "no stored skill analysis for learner")
	ErrUnknownQuestion    = NewDomainError("diagnostic", "Score", ErrValidation, "answer references a non-existent question")
	ErrNoQuestions        = NewDomainError("diagnostic", "Score", ErrValidation, "diagnostic has no questions")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsStateInvariant checks if the error indicates a corrupted record.
// These are fatal: a caller bypassed the pipeline's ownership contract.
func IsStateInvariant(err error) bool {
	return errors.Is(err, ErrStateInvariant)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrKeyLocked)
}
