package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/dbmux/internal/errors"
	"github.com/systmms/dbmux/pkg/credential"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
	assert.Contains(t, errMsg, "💡")
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "default",
		Value:      "postgres://",
		Message:    "connection string has no connection part after the engine",
		Suggestion: "Use the form '<engine>://<connection>'",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "default")
	assert.Contains(t, errMsg, "postgres://")
	assert.Contains(t, errMsg, "no connection part")
	assert.Contains(t, errMsg, "<engine>://<connection>")
}

// TestCredentialErrorFormatting verifies CredentialError names the failed step
func TestCredentialErrorFormatting(t *testing.T) {
	t.Parallel()

	baseErr := fmt.Errorf("AccessDenied: User is not authorized")
	err := errors.CredentialError{
		Operation: "assume role",
		Resource:  "arn:aws:iam::123456789012:role/db-reader",
		Err:       baseErr,
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "assume role")
	assert.Contains(t, errMsg, "arn:aws:iam::123456789012:role/db-reader")
	assert.Contains(t, errMsg, "AccessDenied")
}

// TestCredentialErrorPreservesCause verifies the service error stays reachable
// through the wrap chain
func TestCredentialErrorPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("ResourceNotFoundException: no such secret")

	credErr := errors.CredentialError{
		Operation: "get secret value",
		Resource:  "prod/db",
		Err:       cause,
	}
	assert.ErrorIs(t, credErr, cause)

	// Still reachable after the CLI layer wraps it again
	wrapped := errors.ResolutionError("secret resolution", "prod/db", credErr)
	assert.ErrorIs(t, wrapped, cause)

	var asCredential errors.CredentialError
	assert.ErrorAs(t, wrapped, &asCredential)
	assert.Equal(t, "get secret value", asCredential.Operation)
}

// TestResolutionErrorSuggestions verifies AWS-specific error suggestions
func TestResolutionErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		errorMsg           string
		expectedSuggestion string
	}{
		{
			name:               "access_denied",
			errorMsg:           "AccessDenied: not authorized to perform sts:AssumeRole",
			expectedSuggestion: "sts:TagSession",
		},
		{
			name:               "secret_not_found",
			errorMsg:           "ResourceNotFoundException: Secrets Manager can't find the specified secret",
			expectedSuggestion: "list-secrets",
		},
		{
			name:               "malformed_role_arn",
			errorMsg:           "MalformedPolicyDocument: invalid principal",
			expectedSuggestion: "full role ARN",
		},
		{
			name:               "expired_credentials",
			errorMsg:           "ExpiredToken: the security token included in the request is expired",
			expectedSuggestion: "aws configure",
		},
		{
			name:               "throttling",
			errorMsg:           "ThrottlingException: rate exceeded",
			expectedSuggestion: "rate limit",
		},
		{
			name:               "timeout",
			errorMsg:           "dial tcp: i/o timeout",
			expectedSuggestion: "network",
		},
		{
			name:               "connection_refused",
			errorMsg:           "dial tcp 127.0.0.1:4566: connection refused",
			expectedSuggestion: "AWS endpoint",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			baseErr := fmt.Errorf("%s", tt.errorMsg)
			err := errors.ResolutionError("token generation", "app@db:5432", baseErr)

			errMsg := err.Error()
			assert.Contains(t, errMsg, tt.expectedSuggestion)
			assert.Contains(t, errMsg, "app@db:5432")
		})
	}
}

// TestResolutionErrorTypedSuggestions verifies the portable credential error
// types drive suggestions without relying on message text
func TestResolutionErrorTypedSuggestions(t *testing.T) {
	t.Parallel()

	notFound := credential.NotFoundError{Resource: "prod/db", Err: fmt.Errorf("gone")}
	err := errors.ResolutionError("secret resolution", "prod/db", notFound)
	assert.Contains(t, err.Error(), "secret 'prod/db' exists")

	denied := credential.AuthError{Operation: "assume role", Resource: "arn:aws:iam::1:role/r", Err: fmt.Errorf("nope")}
	err = errors.ResolutionError("token generation", "app@db:5432", denied)
	assert.Contains(t, err.Error(), "sts:TagSession")
}

// TestIsRetryable verifies retryable error detection
func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		errorMsg  string
		retryable bool
	}{
		{"timeout", "operation timeout", true},
		{"rate_limit", "rate limit exceeded", true},
		{"throttling", "ThrottlingException", true},
		{"connection_reset", "connection reset by peer", true},
		{"broken_pipe", "broken pipe", true},
		{"not_found", "resource not found", false},
		{"invalid_config", "invalid configuration", false},
		{"nil_error", "", false}, // nil error case
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err error
			if tt.errorMsg != "" {
				err = fmt.Errorf("%s", tt.errorMsg)
			}

			result := errors.IsRetryable(err)
			assert.Equal(t, tt.retryable, result)
		})
	}
}

// TestSimplifyError verifies error simplification for common cases
func TestSimplifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		inputError    error
		expectedType  string
		expectedInMsg string
	}{
		{
			name:          "yaml_error",
			inputError:    fmt.Errorf("yaml: line 5: mapping values are not allowed"),
			expectedType:  "ConfigError",
			expectedInMsg: "Invalid YAML",
		},
		{
			name:          "permission_denied",
			inputError:    fmt.Errorf("permission denied"),
			expectedType:  "UserError",
			expectedInMsg: "Permission denied",
		},
		{
			name:          "file_not_found",
			inputError:    fmt.Errorf("no such file or directory"),
			expectedType:  "UserError",
			expectedInMsg: "not found",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			simplified := errors.SimplifyError(tt.inputError)

			errMsg := simplified.Error()
			assert.Contains(t, errMsg, tt.expectedInMsg)

			switch tt.expectedType {
			case "ConfigError":
				_, ok := simplified.(errors.ConfigError)
				assert.True(t, ok, "Should be ConfigError type")
			case "UserError":
				_, ok := simplified.(errors.UserError)
				assert.True(t, ok, "Should be UserError type")
			}
		})
	}
}

// TestUserErrorUnwrap verifies error unwrapping works correctly
func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	baseErr := fmt.Errorf("base error")
	userErr := errors.UserError{
		Message: "wrapped error",
		Err:     baseErr,
	}

	unwrapped := userErr.Unwrap()
	assert.Equal(t, baseErr, unwrapped)
}

// TestNilErrorHandling verifies nil errors are handled gracefully
func TestNilErrorHandling(t *testing.T) {
	t.Parallel()

	assert.False(t, errors.IsRetryable(nil))
	assert.Nil(t, errors.SimplifyError(nil))
}
