// Package credential defines the interfaces through which the query-execution
// layer obtains database credentials from dbmux.
//
// The connector separates credential resolution (this module) from query
// execution (an external collaborator). The query layer holds a connection
// descriptor telling it which strategy a catalog uses — a stored secret or a
// generated IAM authentication token — and calls the matching source with the
// current caller identity. Implementations cache aggressively; callers must
// treat every returned value as short-lived and re-request rather than hold
// on to it.
//
// # Error Handling
//
// A missing secret surfaces as NotFoundError and a denied step as AuthError;
// anything else passes through wrapped with operation context. The underlying
// service error always stays reachable via errors.As. There are no retries,
// no fallback values, and never a stale cached value in place of a failed
// refresh. Callers that want retry behavior implement it themselves.
//
// # Concurrency
//
// Implementations must be safe for concurrent use. Both methods block on
// network calls and honor context cancellation as their only timeout
// mechanism.
package credential

import (
	"context"
	"fmt"

	"github.com/systmms/dbmux/pkg/identity"
)

// SecretSource resolves stored secrets for a caller.
//
// Used for catalogs whose connection string carries a ${secretName}
// placeholder. The secret's value is fetched through a role assumed on
// behalf of the caller and is typically a JSON document holding a username
// and password.
type SecretSource interface {
	// ResolveSecret returns the named secret's string value for the given
	// caller. Values are cached per (secret, caller) for a short window.
	ResolveSecret(ctx context.Context, secretName string, caller identity.Caller) (string, error)
}

// PasswordSource resolves generated database authentication tokens for a
// caller.
//
// Used for catalogs with IAM authentication: the caller's principal tags are
// forwarded as role-session tags, and the assumed role signs a time-limited
// token for the database endpoint. The token stands in for the password.
type PasswordSource interface {
	// ResolvePassword returns a signed authentication token for connecting
	// to endpoint:port as username, on behalf of the given caller. Tokens
	// are cached per (username, endpoint, port, caller) for a short window.
	ResolvePassword(ctx context.Context, username, endpoint string, port int, caller identity.Caller) (string, error)
}

// NotFoundError indicates the requested secret does not exist in the backing
// store.
type NotFoundError struct {
	// Resource is the identifier that could not be found.
	Resource string

	// Err is the underlying lookup failure, when available.
	Err error
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential resource '%s' not found: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("credential resource '%s' not found", e.Resource)
}

// Unwrap returns the underlying service error.
func (e NotFoundError) Unwrap() error {
	return e.Err
}

// AuthError indicates role assumption or credential retrieval was denied for
// the caller.
type AuthError struct {
	// Operation is the step that was denied, e.g. "assume role".
	Operation string

	// Resource is the role ARN or secret the step targeted.
	Resource string

	// Err is the denial from the underlying service.
	Err error
}

// Error implements the error interface.
func (e AuthError) Error() string {
	msg := "credential authorization failed during " + e.Operation
	if e.Resource != "" {
		msg += fmt.Sprintf(" for '%s'", e.Resource)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying service error.
func (e AuthError) Unwrap() error {
	return e.Err
}
