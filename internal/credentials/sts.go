package credentials

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"

	dberrors "github.com/systmms/dbmux/internal/errors"
	"github.com/systmms/dbmux/pkg/credential"
	"github.com/systmms/dbmux/pkg/identity"
)

// STSAPI captures the STS surface the resolvers use. *sts.Client satisfies it.
type STSAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// assumeRole exchanges the process identity for temporary credentials of
// roleARN. Tags, when present, are attached as role-session tags verbatim and
// in order — that forwarding is the whole ABAC contract, so no filtering or
// transformation happens here.
func assumeRole(ctx context.Context, client STSAPI, roleARN, sessionName string, tags []identity.Tag) (aws.Credentials, error) {
	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(sessionName),
	}

	if len(tags) > 0 {
		sessionTags := make([]types.Tag, 0, len(tags))
		for _, tag := range tags {
			sessionTags = append(sessionTags, types.Tag{
				Key:   aws.String(tag.Key),
				Value: aws.String(tag.Value),
			})
		}
		input.Tags = sessionTags
	}

	output, err := client.AssumeRole(ctx, input)
	if err != nil {
		if isAccessDenied(err) {
			return aws.Credentials{}, credential.AuthError{Operation: "assume role", Resource: roleARN, Err: err}
		}
		return aws.Credentials{}, dberrors.CredentialError{Operation: "assume role", Resource: roleARN, Err: err}
	}
	if output.Credentials == nil {
		return aws.Credentials{}, dberrors.CredentialError{
			Operation: "assume role",
			Resource:  roleARN,
			Err:       errors.New("response carried no credentials"),
		}
	}

	creds := output.Credentials
	return aws.Credentials{
		AccessKeyID:     aws.ToString(creds.AccessKeyId),
		SecretAccessKey: aws.ToString(creds.SecretAccessKey),
		SessionToken:    aws.ToString(creds.SessionToken),
		CanExpire:       true,
		Expires:         aws.ToTime(creds.Expiration),
		Source:          "AssumeRole",
	}, nil
}

// staticProvider wraps assumed-role credentials for SDK clients built per
// resolution.
func staticProvider(creds aws.Credentials) aws.CredentialsProvider {
	return awscreds.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)
}
