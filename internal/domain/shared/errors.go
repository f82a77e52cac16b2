package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")

	// ErrLockTimeout is returned when a document lock cannot be acquired
	// within the configured wait budget. Callers may retry.
	ErrLockTimeout = NewDomainError("LOCK_TIMEOUT", "Another operation holds the document lock")
)

// InvalidTransitionError is returned when a status transition is attempted
// from a state that does not allow it.
type InvalidTransitionError struct {
	From      string
	Attempted string
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.Attempted)
}

// NewInvalidTransitionError creates a new InvalidTransitionError
func NewInvalidTransitionError(from, attempted string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, Attempted: attempted}
}
