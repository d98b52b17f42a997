package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	dberrors "github.com/systmms/dbmux/internal/errors"
	"github.com/systmms/dbmux/internal/logging"
	"github.com/systmms/dbmux/pkg/identity"
)

// SecretsAPI captures the Secrets Manager surface the resolver uses.
// *secretsmanager.Client satisfies it; tests inject a fake.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClientFactory builds a Secrets Manager client from assumed-role
// credentials. A fresh client per resolution keeps the temporary credentials
// out of any long-lived client state.
type SecretsClientFactory func(creds aws.Credentials) SecretsAPI

// SecretResolver fetches stored secrets through a role assumed on behalf of
// the caller. The role-session name is derived from the caller's ARN so audit
// trails name the human, but no session tags are attached on this path — the
// secret itself is the credential, and access to it is controlled by the
// configured role alone.
//
// Resolved values are cached per (secret, caller identity).
type SecretResolver struct {
	roleARN   string
	region    string
	endpoint  string // optional custom endpoint for LocalStack or testing
	sts       STSAPI
	newClient SecretsClientFactory
	cache     *identityCache
	logger    *logging.Logger
}

// SecretResolverOption is a functional option for configuring a SecretResolver
type SecretResolverOption func(*SecretResolver)

// WithSecretsRegion sets the region the Secrets Manager client talks to
func WithSecretsRegion(region string) SecretResolverOption {
	return func(r *SecretResolver) {
		r.region = region
	}
}

// WithSecretsEndpoint sets a custom Secrets Manager endpoint (for LocalStack or testing)
func WithSecretsEndpoint(endpoint string) SecretResolverOption {
	return func(r *SecretResolver) {
		r.endpoint = endpoint
	}
}

// WithSecretsClientFactory sets a custom client factory (for testing)
func WithSecretsClientFactory(factory SecretsClientFactory) SecretResolverOption {
	return func(r *SecretResolver) {
		r.newClient = factory
	}
}

// WithSecretsLogger sets the logger used by the resolver
func WithSecretsLogger(logger *logging.Logger) SecretResolverOption {
	return func(r *SecretResolver) {
		r.logger = logger
	}
}

// NewSecretResolver creates a resolver that assumes roleARN before every
// uncached secret fetch. The STS client and a non-blank role are required.
func NewSecretResolver(stsClient STSAPI, roleARN string, opts ...SecretResolverOption) (*SecretResolver, error) {
	if stsClient == nil {
		return nil, errors.New("sts client must be provided")
	}
	if strings.TrimSpace(roleARN) == "" {
		return nil, dberrors.ConfigError{
			Field:      "assume_role_arn",
			Message:    "role to assume when fetching secrets must be set",
			Suggestion: "Set '<catalog>_assume_role_arn' to a full role ARN (arn:aws:iam::<account>:role/<name>)",
		}
	}

	r := &SecretResolver{
		roleARN: roleARN,
		region:  "us-east-1",
		sts:     stsClient,
		cache:   newIdentityCache(resolverSecret),
		logger:  logging.New(false, true),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.newClient == nil {
		r.newClient = r.defaultClientFactory
	}

	return r, nil
}

// ResolveSecret returns the named secret's value for the given caller,
// serving from cache when the cached value is fresh. All service failures
// propagate to the caller; there is no retry and no stale fallback.
func (r *SecretResolver) ResolveSecret(ctx context.Context, secretName string, caller identity.Caller) (string, error) {
	key := cacheKey([]string{secretName}, caller)
	if value, ok := r.cache.get(key); ok {
		r.logger.Debug("secret '%s' served from cache for identity %s", secretName, caller.ARN)
		return value, nil
	}

	sessionName := roleSessionName(caller.ARN)
	r.logger.Debug("resolving secret '%s' for identity %s via role %s, session %s",
		secretName, caller.ARN, r.roleARN, sessionName)
	started := time.Now()

	creds, err := assumeRole(ctx, r.sts, r.roleARN, sessionName, nil)
	if err != nil {
		recordResolutionFailure(resolverSecret, stageAssumeRole)
		return "", err
	}

	output, err := r.newClient(creds).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		recordResolutionFailure(resolverSecret, stageFetchSecret)
		return "", classifySecretError(secretName, err)
	}

	var value string
	switch {
	case output.SecretString != nil:
		value = *output.SecretString
	case output.SecretBinary != nil:
		value = string(output.SecretBinary)
	default:
		recordResolutionFailure(resolverSecret, stageFetchSecret)
		return "", dberrors.CredentialError{
			Operation: "get secret value",
			Resource:  secretName,
			Err:       errors.New("secret has no value"),
		}
	}

	r.cache.put(key, value)
	recordResolution(resolverSecret, time.Since(started).Seconds())
	return value, nil
}

func (r *SecretResolver) defaultClientFactory(creds aws.Credentials) SecretsAPI {
	cfg := aws.Config{
		Region:      r.region,
		Credentials: staticProvider(creds),
	}
	if r.endpoint != "" {
		return secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(r.endpoint)
		})
	}
	return secretsmanager.NewFromConfig(cfg)
}
