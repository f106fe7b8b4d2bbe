// Package derrors provides the typed errors used across fimcache.
// Each error carries a stable code so callers and the RPC layer can
// classify failures without string matching.
package derrors

import (
	"errors"
	"fmt"
)

// FimError is the base interface for all fimcache errors
type FimError interface {
	error
	// Code returns a unique error code for programmatic error handling
	Code() string
}

// baseError provides common functionality for all fimcache errors
type baseError struct {
	code    string
	message string
	cause   error
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Code() string {
	return e.code
}

func (e *baseError) Unwrap() error {
	return e.cause
}

// CodeOf returns the code of the first FimError in err's chain, or "" if none.
func CodeOf(err error) string {
	var fe FimError
	if errors.As(err, &fe) {
		return fe.Code()
	}
	return ""
}

// ConfigurationError represents a missing or incomplete configuration,
// e.g. no provider configured or a provider without endpoint or key.
// Triggers that hit one are skipped and never retried.
type ConfigurationError struct {
	baseError
	Path string
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(path string, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		baseError: baseError{
			code:    "CONFIG_ERROR",
			message: message,
			cause:   cause,
		},
		Path: path,
	}
}

// TransportError represents a failed provider call: timeout, network
// failure or a non-2xx status. Status is 0 when no response was received.
type TransportError struct {
	baseError
	Provider string
	Status   int
}

// NewTransportError creates a new transport error
func NewTransportError(provider string, status int, message string, cause error) *TransportError {
	return &TransportError{
		baseError: baseError{
			code:    "TRANSPORT_ERROR",
			message: message,
			cause:   cause,
		},
		Provider: provider,
		Status:   status,
	}
}

// EmptyResultError reports a provider answer without any usable completion
type EmptyResultError struct {
	baseError
	Provider string
}

// NewEmptyResultError creates a new empty result error
func NewEmptyResultError(provider string, message string) *EmptyResultError {
	return &EmptyResultError{
		baseError: baseError{
			code:    "EMPTY_RESULT",
			message: message,
		},
		Provider: provider,
	}
}

// RetrievalError represents a failed call to the snippet retrieval service
type RetrievalError struct {
	baseError
	Endpoint string
}

// NewRetrievalError creates a new retrieval error
func NewRetrievalError(endpoint string, message string, cause error) *RetrievalError {
	return &RetrievalError{
		baseError: baseError{
			code:    "RETRIEVAL_ERROR",
			message: message,
			cause:   cause,
		},
		Endpoint: endpoint,
	}
}

// ParseError represents a failure to extract declarations from a source file
type ParseError struct {
	baseError
	Path string
}

// NewParseError creates a new parse error
func NewParseError(path string, message string, cause error) *ParseError {
	return &ParseError{
		baseError: baseError{
			code:    "PARSE_ERROR",
			message: message,
			cause:   cause,
		},
		Path: path,
	}
}

// AuthorizationError represents errors related to project trust
type AuthorizationError struct {
	baseError
	Path string
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(path string, message string, cause error) *AuthorizationError {
	return &AuthorizationError{
		baseError: baseError{
			code:    "AUTH_ERROR",
			message: message,
			cause:   cause,
		},
		Path: path,
	}
}

// ValidationError represents errors during validation
type ValidationError struct {
	baseError
	Field string
}

// NewValidationError creates a new validation error
func NewValidationError(field string, message string, cause error) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			code:    "VALIDATION_ERROR",
			message: message,
			cause:   cause,
		},
		Field: field,
	}
}

// NotFoundError represents errors when a resource is not found
type NotFoundError struct {
	baseError
	Resource string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string, message string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			code:    "NOT_FOUND",
			message: message,
		},
		Resource: resource,
	}
}

// AlreadyExistsError represents errors when a resource already exists
type AlreadyExistsError struct {
	baseError
	Resource string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource string, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			code:    "ALREADY_EXISTS",
			message: message,
		},
		Resource: resource,
	}
}
