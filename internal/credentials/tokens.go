package credentials

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdsauth "github.com/aws/aws-sdk-go-v2/feature/rds/auth"

	dberrors "github.com/systmms/dbmux/internal/errors"
	"github.com/systmms/dbmux/internal/logging"
	"github.com/systmms/dbmux/pkg/identity"
)

// defaultSigningRegion is where generated auth tokens are signed. Token
// signatures are region-bound; override with WithTokenSigningRegion when the
// database fleet lives elsewhere.
const defaultSigningRegion = "eu-west-1"

// TokenBuilder signs a time-limited database authentication token for
// endpoint ("host:port") and username using the supplied credentials.
// The default builder is the SDK's RDS IAM token generator; tests inject
// their own.
type TokenBuilder func(ctx context.Context, endpoint, region, username string, creds aws.CredentialsProvider) (string, error)

// TokenResolver generates IAM authentication tokens for database logins.
// This is the ABAC path: the caller's principal tags are forwarded, complete
// and unmodified, as role-session tags on the assumed role, so IAM policies
// downstream can grant or deny rds-db:connect based on who is asking.
//
// Tokens are cached per (username, endpoint, port, caller identity). The
// cache TTL is shorter than the token's own validity window and wins: a
// token is never served from cache past the TTL, it is re-generated.
type TokenResolver struct {
	roleARN       string
	signingRegion string
	sts           STSAPI
	buildToken    TokenBuilder
	cache         *identityCache
	logger        *logging.Logger
}

// TokenResolverOption is a functional option for configuring a TokenResolver
type TokenResolverOption func(*TokenResolver)

// WithTokenSigningRegion sets the region auth tokens are signed against
func WithTokenSigningRegion(region string) TokenResolverOption {
	return func(r *TokenResolver) {
		r.signingRegion = region
	}
}

// WithTokenBuilder sets a custom token builder (for testing)
func WithTokenBuilder(builder TokenBuilder) TokenResolverOption {
	return func(r *TokenResolver) {
		r.buildToken = builder
	}
}

// WithTokenLogger sets the logger used by the resolver
func WithTokenLogger(logger *logging.Logger) TokenResolverOption {
	return func(r *TokenResolver) {
		r.logger = logger
	}
}

// NewTokenResolver creates a resolver that assumes roleARN with the caller's
// tags before generating each uncached token. The STS client and a non-blank
// role are required.
func NewTokenResolver(stsClient STSAPI, roleARN string, opts ...TokenResolverOption) (*TokenResolver, error) {
	if stsClient == nil {
		return nil, errors.New("sts client must be provided")
	}
	if strings.TrimSpace(roleARN) == "" {
		return nil, dberrors.ConfigError{
			Field:      "assume_role_arn",
			Message:    "role to assume when generating database tokens must be set",
			Suggestion: "Set '<catalog>_assume_role_arn' to a full role ARN (arn:aws:iam::<account>:role/<name>)",
		}
	}

	r := &TokenResolver{
		roleARN:       roleARN,
		signingRegion: defaultSigningRegion,
		sts:           stsClient,
		buildToken:    buildRDSAuthToken,
		cache:         newIdentityCache(resolverToken),
		logger:        logging.New(false, true),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// ResolvePassword returns a signed authentication token for connecting to
// endpoint:port as username on behalf of the given caller, serving from
// cache when fresh. All service failures propagate to the caller; there is
// no retry and no stale fallback.
func (r *TokenResolver) ResolvePassword(ctx context.Context, username, endpoint string, port int, caller identity.Caller) (string, error) {
	key := cacheKey([]string{username, endpoint, strconv.Itoa(port)}, caller)
	if token, ok := r.cache.get(key); ok {
		r.logger.Debug("auth token for %s@%s:%d served from cache for identity %s", username, endpoint, port, caller.ARN)
		return token, nil
	}

	sessionName := roleSessionName(caller.ARN)
	r.logger.Debug("generating auth token for db user '%s' at %s:%d, identity %s, role %s, session %s",
		username, endpoint, port, caller.ARN, r.roleARN, sessionName)
	started := time.Now()

	creds, err := assumeRole(ctx, r.sts, r.roleARN, sessionName, caller.Tags)
	if err != nil {
		recordResolutionFailure(resolverToken, stageAssumeRole)
		return "", err
	}

	hostport := fmt.Sprintf("%s:%d", endpoint, port)
	token, err := r.buildToken(ctx, hostport, r.signingRegion, username, staticProvider(creds))
	if err != nil {
		recordResolutionFailure(resolverToken, stageBuildToken)
		return "", dberrors.CredentialError{Operation: "build auth token", Resource: hostport, Err: err}
	}

	r.cache.put(key, token)
	recordResolution(resolverToken, time.Since(started).Seconds())
	return token, nil
}

func buildRDSAuthToken(ctx context.Context, endpoint, region, username string, creds aws.CredentialsProvider) (string, error) {
	return rdsauth.BuildAuthToken(ctx, endpoint, region, username, creds)
}
