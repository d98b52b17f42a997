package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/systmms/dbmux/internal/credentials"
	dberrors "github.com/systmms/dbmux/internal/errors"
)

func NewResolveCommand(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a credential the way the connector would",
		Long: `Resolve a single credential through the connector's assume-role path.

'resolve secret' fetches a stored secret, 'resolve password' generates an
IAM database authentication token. Both print the raw value to stdout for
scripting; diagnostics go to stderr.`,
	}

	cmd.AddCommand(
		newResolveSecretCommand(rt),
		newResolvePasswordCommand(rt),
	)

	return cmd
}

func newResolveSecretCommand(rt *Runtime) *cobra.Command {
	var (
		roleARN         string
		callerARN       string
		rawTags         []string
		secretsEndpoint string
		jsonOutput      bool
	)

	cmd := &cobra.Command{
		Use:   "secret <secret-name>",
		Short: "Fetch a stored secret through the assume-role path",
		Long: `Assume the configured role and fetch a secret from Secrets Manager.

The caller identity defaults to the current AWS identity; override it with
--caller-arn to resolve on behalf of another principal.

Examples:
  # Fetch a secret through a role
  dbmux resolve secret prod/db --role-arn arn:aws:iam::123456789012:role/reader

  # Use in scripts
  export DB_CREDS=$(dbmux resolve secret prod/db --role-arn $ROLE)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			secretName := args[0]

			tags, err := parseTags(rawTags)
			if err != nil {
				return err
			}

			awsCfg, err := loadAWSConfig(ctx, rt)
			if err != nil {
				return err
			}
			stsClient := sts.NewFromConfig(awsCfg)

			caller, err := resolveCaller(ctx, stsClient, callerARN, tags)
			if err != nil {
				return err
			}

			credentials.InitMetrics()

			opts := []credentials.SecretResolverOption{
				credentials.WithSecretsLogger(rt.Logger),
			}
			if awsCfg.Region != "" {
				opts = append(opts, credentials.WithSecretsRegion(awsCfg.Region))
			}
			if secretsEndpoint != "" {
				opts = append(opts, credentials.WithSecretsEndpoint(secretsEndpoint))
			}

			resolver, err := credentials.NewSecretResolver(stsClient, roleARN, opts...)
			if err != nil {
				return err
			}

			value, err := resolver.ResolveSecret(ctx, secretName, caller)
			if err != nil {
				return dberrors.ResolutionError("secret resolution", secretName, err)
			}

			if jsonOutput {
				output := map[string]interface{}{
					"secret":    secretName,
					"value":     value,
					"roleArn":   roleARN,
					"callerArn": caller.ARN,
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(output); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			} else {
				fmt.Print(value)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&roleARN, "role-arn", "", "Role to assume for the fetch (required)")
	cmd.Flags().StringVar(&callerARN, "caller-arn", "", "Caller identity ARN (defaults to the current AWS identity)")
	cmd.Flags().StringArrayVar(&rawTags, "tag", nil, "Principal tag key=value (repeatable, order preserved)")
	cmd.Flags().StringVar(&secretsEndpoint, "secrets-endpoint", "", "Custom Secrets Manager endpoint (for LocalStack)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	_ = cmd.MarkFlagRequired("role-arn")

	return cmd
}

func newResolvePasswordCommand(rt *Runtime) *cobra.Command {
	var (
		roleARN       string
		callerARN     string
		rawTags       []string
		username      string
		endpoint      string
		port          int
		signingRegion string
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Generate an IAM database authentication token",
		Long: `Assume the configured role with the caller's principal tags as session
tags and generate an IAM database authentication token.

The session tags are what downstream IAM policies match their rds-db:connect
conditions against, so pass the same tags the real caller carries.

Examples:
  # Token for a database user, tagged with the caller's team
  dbmux resolve password --role-arn $ROLE --username app \
    --endpoint db.example.internal --port 5432 --tag team=analytics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tags, err := parseTags(rawTags)
			if err != nil {
				return err
			}

			awsCfg, err := loadAWSConfig(ctx, rt)
			if err != nil {
				return err
			}
			stsClient := sts.NewFromConfig(awsCfg)

			caller, err := resolveCaller(ctx, stsClient, callerARN, tags)
			if err != nil {
				return err
			}

			credentials.InitMetrics()

			opts := []credentials.TokenResolverOption{
				credentials.WithTokenLogger(rt.Logger),
			}
			if signingRegion != "" {
				opts = append(opts, credentials.WithTokenSigningRegion(signingRegion))
			}

			resolver, err := credentials.NewTokenResolver(stsClient, roleARN, opts...)
			if err != nil {
				return err
			}

			token, err := resolver.ResolvePassword(ctx, username, endpoint, port, caller)
			if err != nil {
				return dberrors.ResolutionError("token generation", fmt.Sprintf("%s@%s:%d", username, endpoint, port), err)
			}

			if jsonOutput {
				output := map[string]interface{}{
					"username":  username,
					"endpoint":  endpoint,
					"port":      port,
					"token":     token,
					"roleArn":   roleARN,
					"callerArn": caller.ARN,
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(output); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			} else {
				fmt.Print(token)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&roleARN, "role-arn", "", "Role to assume for token generation (required)")
	cmd.Flags().StringVar(&callerARN, "caller-arn", "", "Caller identity ARN (defaults to the current AWS identity)")
	cmd.Flags().StringArrayVar(&rawTags, "tag", nil, "Principal tag key=value (repeatable, order preserved)")
	cmd.Flags().StringVar(&username, "username", "", "Database username the token logs in as (required)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Database endpoint hostname (required)")
	cmd.Flags().IntVar(&port, "port", 5432, "Database port")
	cmd.Flags().StringVar(&signingRegion, "signing-region", "", "Region the token is signed against (defaults to eu-west-1)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	_ = cmd.MarkFlagRequired("role-arn")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("endpoint")

	return cmd
}
