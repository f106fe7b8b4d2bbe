package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	cause := fmt.Errorf("invalid YAML")
	err := NewConfigurationError("/path/to/.fimcache.yml", "failed to parse config", cause)

	assert.Equal(t, "CONFIG_ERROR", err.Code())
	assert.Equal(t, "/path/to/.fimcache.yml", err.Path)
	assert.Contains(t, err.Error(), "failed to parse config")
	assert.Contains(t, err.Error(), "invalid YAML")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestTransportError(t *testing.T) {
	cause := fmt.Errorf("context deadline exceeded")
	err := NewTransportError("deepseek", 0, "request failed", cause)

	assert.Equal(t, "TRANSPORT_ERROR", err.Code())
	assert.Equal(t, "deepseek", err.Provider)
	assert.Equal(t, 0, err.Status)
	assert.Contains(t, err.Error(), "request failed")
	assert.Contains(t, err.Error(), "deadline exceeded")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestTransportError_WithStatus(t *testing.T) {
	err := NewTransportError("qwen", 503, "HTTP 503", nil)

	assert.Equal(t, 503, err.Status)
	assert.Equal(t, "HTTP 503", err.Error())
}

func TestEmptyResultError(t *testing.T) {
	err := NewEmptyResultError("thudm", "no usable completion")

	assert.Equal(t, "EMPTY_RESULT", err.Code())
	assert.Equal(t, "thudm", err.Provider)
	assert.Nil(t, errors.Unwrap(err))
}

func TestRetrievalError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewRetrievalError("http://localhost:9000", "retrieval failed", cause)

	assert.Equal(t, "RETRIEVAL_ERROR", err.Code())
	assert.Equal(t, "http://localhost:9000", err.Endpoint)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestParseError(t *testing.T) {
	cause := fmt.Errorf("unsupported language")
	err := NewParseError("main.rs", "cannot extract declarations", cause)

	assert.Equal(t, "PARSE_ERROR", err.Code())
	assert.Equal(t, "main.rs", err.Path)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestAuthorizationError(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := NewAuthorizationError("/test/path", "project is not trusted", cause)

	assert.Equal(t, "AUTH_ERROR", err.Code())
	assert.Equal(t, "/test/path", err.Path)
	assert.Contains(t, err.Error(), "project is not trusted")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestValidationError(t *testing.T) {
	cause := fmt.Errorf("invalid format")
	err := NewValidationError("providers/0/url", "validation failed", cause)

	assert.Equal(t, "VALIDATION_ERROR", err.Code())
	assert.Equal(t, "providers/0/url", err.Field)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("file", "file not indexed")

	assert.Equal(t, "NOT_FOUND", err.Code())
	assert.Equal(t, "file", err.Resource)
	assert.Nil(t, errors.Unwrap(err))
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError(".fimcache.yml", "config file already exists")

	assert.Equal(t, "ALREADY_EXISTS", err.Code())
	assert.Equal(t, ".fimcache.yml", err.Resource)
	assert.Nil(t, errors.Unwrap(err))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", fmt.Errorf("boom"), ""},
		{"direct", NewEmptyResultError("p", "empty"), "EMPTY_RESULT"},
		{"wrapped", fmt.Errorf("dispatch: %w", NewTransportError("p", 500, "HTTP 500", nil)), "TRANSPORT_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestErrorChaining(t *testing.T) {
	rootCause := fmt.Errorf("root cause")
	transportErr := NewTransportError("deepseek", 0, "transport", rootCause)
	configErr := NewConfigurationError("/config", "config error", transportErr)

	unwrapped := errors.Unwrap(configErr)
	assert.Equal(t, transportErr, unwrapped)

	unwrapped = errors.Unwrap(unwrapped)
	assert.Equal(t, rootCause, unwrapped)

	var te *TransportError
	assert.True(t, errors.As(configErr, &te))
	assert.Equal(t, "deepseek", te.Provider)
}
