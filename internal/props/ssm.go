package props

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	dberrors "github.com/systmms/dbmux/internal/errors"
)

// SSMAPI captures the Parameter Store operations needed to load properties.
type SSMAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// FromSSM loads properties from every parameter directly under parameterPath.
// The property key is the last path segment, so /dbmux/prod/default becomes
// "default". SecureString parameters are decrypted.
func FromSSM(ctx context.Context, client SSMAPI, parameterPath string) (map[string]string, error) {
	if strings.TrimSpace(parameterPath) == "" {
		return nil, dberrors.ConfigError{
			Field:      "ssm_path",
			Message:    "parameter path must be provided",
			Suggestion: "Pass a path like /dbmux/prod",
		}
	}
	if !strings.HasPrefix(parameterPath, "/") {
		parameterPath = "/" + parameterPath
	}

	properties := make(map[string]string)

	var nextToken *string
	for {
		output, err := client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(parameterPath),
			WithDecryption: aws.Bool(true),
			NextToken:      nextToken,
		})
		if err != nil {
			return nil, dberrors.UserError{
				Message:    fmt.Sprintf("Failed to load properties from SSM path '%s'", parameterPath),
				Suggestion: "Check the path exists and the caller has ssm:GetParametersByPath (plus kms:Decrypt for SecureString parameters)",
				Err:        err,
			}
		}

		for _, parameter := range output.Parameters {
			name := aws.ToString(parameter.Name)
			properties[path.Base(name)] = aws.ToString(parameter.Value)
		}

		if output.NextToken == nil {
			break
		}
		nextToken = output.NextToken
	}

	return properties, nil
}
