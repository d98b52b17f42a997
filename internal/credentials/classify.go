package credentials

import (
	"errors"
	"strings"

	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	dberrors "github.com/systmms/dbmux/internal/errors"
	"github.com/systmms/dbmux/pkg/credential"
)

// classifySecretError converts Secrets Manager failures to the portable
// error types in pkg/credential so callers can branch on missing-secret and
// denied-access cases without importing the AWS SDK. The service error stays
// wrapped underneath in every branch.
func classifySecretError(secretName string, err error) error {
	if isNotFound(err) {
		return credential.NotFoundError{Resource: secretName, Err: err}
	}
	if isAccessDenied(err) {
		return credential.AuthError{Operation: "get secret value", Resource: secretName, Err: err}
	}
	return dberrors.CredentialError{Operation: "get secret value", Resource: secretName, Err: err}
}

func isNotFound(err error) bool {
	var notFound *smtypes.ResourceNotFoundException
	return errors.As(err, &notFound)
}

// isAccessDenied checks for common authorization failures by string matching,
// the only shape shared across the STS and Secrets Manager denial variants.
func isAccessDenied(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "Forbidden")
}
