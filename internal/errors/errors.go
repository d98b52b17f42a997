package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/dbmux/pkg/credential"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CredentialError represents a failed credential resolution step. The
// underlying service error is wrapped, never replaced, so callers can still
// reach the SDK error types through errors.As.
type CredentialError struct {
	Operation string // e.g. "assume role", "get secret value", "build auth token"
	Resource  string // role ARN, secret name, or endpoint the step targeted
	Err       error
}

func (e CredentialError) Error() string {
	msg := fmt.Sprintf("credential resolution failed during %s", e.Operation)
	if e.Resource != "" {
		msg += fmt.Sprintf(" for '%s'", e.Resource)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e CredentialError) Unwrap() error {
	return e.Err
}

// ResolutionError enhances credential-service errors with context for the CLI
func ResolutionError(operation string, resource string, err error) error {
	suggestion := getResolutionSuggestion(err)

	return UserError{
		Message:    fmt.Sprintf("credential error during %s for '%s'", operation, resource),
		Suggestion: suggestion,
		Err:        err,
	}
}

// getResolutionSuggestion returns helpful suggestions based on the AWS error
func getResolutionSuggestion(err error) string {
	var notFound credential.NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("Verify the secret '%s' exists in this region. List secrets with: 'aws secretsmanager list-secrets'", notFound.Resource)
	}
	var denied credential.AuthError
	if errors.As(err, &denied) {
		return "Check the execution role can call sts:AssumeRole on the configured role, and that the role's trust policy allows it (session tags require sts:TagSession)"
	}

	errStr := err.Error()

	if strings.Contains(errStr, "AccessDenied") {
		return "Check the execution role can call sts:AssumeRole on the configured role, and that the role's trust policy allows it (session tags require sts:TagSession)"
	}
	if strings.Contains(errStr, "ResourceNotFoundException") {
		return "Verify the secret name and region. List secrets with: 'aws secretsmanager list-secrets'"
	}
	if strings.Contains(errStr, "MalformedPolicyDocument") {
		return "Check the assume-role ARN is a full role ARN (arn:aws:iam::<account>:role/<name>)"
	}
	if strings.Contains(errStr, "ExpiredToken") || strings.Contains(errStr, "InvalidClientTokenId") {
		return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	}
	if strings.Contains(errStr, "ThrottlingException") || strings.Contains(errStr, "Throttling") {
		return "AWS rate limit exceeded. Wait a moment and try again"
	}
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and AWS endpoint configuration"
	}

	return ""
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}

	return false
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}

	// Simplify common technical errors
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
