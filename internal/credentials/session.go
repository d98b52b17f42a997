package credentials

import (
	"regexp"

	"github.com/google/uuid"
)

// Role sessions are named after the human behind the call when possible, so
// CloudTrail entries for the assumed role read as who actually triggered the
// resolution. Caller ARNs of federated principals usually embed an email.
var sessionNamePattern = regexp.MustCompile(`(\w+\.\w+@\w+\.\w+)`)

// roleSessionName extracts an email-shaped token from the caller's ARN. ARNs
// without one get a random unique name instead; that is a fallback, not an
// error. Both shapes stay within the characters STS accepts for session
// names.
func roleSessionName(arn string) string {
	if m := sessionNamePattern.FindStringSubmatch(arn); m != nil {
		return m[1]
	}
	return uuid.New().String()
}
