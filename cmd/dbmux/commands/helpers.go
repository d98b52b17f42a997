package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	dberrors "github.com/systmms/dbmux/internal/errors"
	"github.com/systmms/dbmux/internal/props"
	"github.com/systmms/dbmux/pkg/identity"
)

// loadProperties merges the configured property sources. Precedence, lowest
// to highest: SSM path, properties file, process environment.
func loadProperties(ctx context.Context, rt *Runtime) (map[string]string, error) {
	var sources []map[string]string

	if rt.SSMPath != "" {
		awsCfg, err := loadAWSConfig(ctx, rt)
		if err != nil {
			return nil, err
		}
		fromSSM, err := props.FromSSM(ctx, ssm.NewFromConfig(awsCfg), rt.SSMPath)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fromSSM)
	}

	if rt.PropsFile != "" {
		fromFile, err := props.FromFile(rt.PropsFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fromFile)
	}

	if !rt.NoEnv {
		sources = append(sources, props.FromEnv())
	}

	return props.Merge(sources...), nil
}

// loadAWSConfig builds the AWS config from the default chain, applying the
// --region override when given.
func loadAWSConfig(ctx context.Context, rt *Runtime) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if rt.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(rt.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return awsCfg, nil
}

// parseTags parses repeated key=value flags into principal tags. Order is
// preserved: the resolver forwards tags to the role session in the order
// given here.
func parseTags(raw []string) ([]identity.Tag, error) {
	tags := make([]identity.Tag, 0, len(raw))
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, dberrors.ConfigError{
				Field:      "tag",
				Value:      kv,
				Message:    "tags must be key=value",
				Suggestion: "Pass principal tags as --tag team=analytics --tag env=prod",
			}
		}
		tags = append(tags, identity.Tag{Key: parts[0], Value: parts[1]})
	}
	return tags, nil
}

// resolveCaller returns the identity credentials are resolved for. When no
// ARN is given the current AWS caller identity is used, which matches what
// the connector sees for a direct invocation.
func resolveCaller(ctx context.Context, client *sts.Client, callerARN string, tags []identity.Tag) (identity.Caller, error) {
	if callerARN == "" {
		output, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			return identity.Caller{}, dberrors.ResolutionError("get caller identity", "sts", err)
		}
		callerARN = aws.ToString(output.Arn)
	}
	return identity.New(callerARN, tags), nil
}
