package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/systmms/dbmux/internal/connection"
)

const (
	statusHealthy = "healthy"
	statusError   = "error"
	statusSkipped = "skipped"
)

func NewDoctorCommand(rt *Runtime) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check connector configuration and AWS reachability",
		Long: `Verify that the connector configuration is usable.

This command checks:
- Property sources load and merge
- Catalog discovery and connection string parsing
- AWS caller identity (skipped with --offline)

The catalog check reports how many catalogs use each credential strategy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt.Logger.Info("Checking dbmux configuration...")

			checks := make([]checkResult, 0, 3)

			properties, err := loadProperties(ctx, rt)
			if err != nil {
				checks = append(checks, checkResult{Name: "properties", Status: statusError, Message: err.Error()})
				displayChecks(checks)
				return fmt.Errorf("property sources are not usable")
			}
			checks = append(checks, checkResult{
				Name:    "properties",
				Status:  statusHealthy,
				Message: fmt.Sprintf("%d properties loaded", len(properties)),
			})

			pairs, err := connection.Build(properties)
			if err != nil {
				checks = append(checks, checkResult{Name: "catalogs", Status: statusError, Message: err.Error()})
			} else {
				checks = append(checks, checkResult{
					Name:    "catalogs",
					Status:  statusHealthy,
					Message: summarizeCatalogs(pairs),
				})
			}

			checks = append(checks, checkCallerIdentity(cmd, rt, offline))

			displayChecks(checks)

			healthy, failed := 0, 0
			for _, check := range checks {
				switch check.Status {
				case statusHealthy:
					healthy++
				case statusError:
					failed++
				}
			}

			fmt.Printf("\nSummary: %d/%d checks passed\n", healthy, len(checks))
			if failed > 0 {
				return fmt.Errorf("some checks failed")
			}

			rt.Logger.Info("✓ Configuration is ready")
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip AWS connectivity checks")

	return cmd
}

// checkResult represents the outcome of one doctor check
type checkResult struct {
	Name    string
	Status  string // healthy, error, skipped
	Message string
}

func checkCallerIdentity(cmd *cobra.Command, rt *Runtime, offline bool) checkResult {
	if offline {
		return checkResult{Name: "aws identity", Status: statusSkipped, Message: "offline mode"}
	}

	ctx := cmd.Context()
	awsCfg, err := loadAWSConfig(ctx, rt)
	if err != nil {
		return checkResult{Name: "aws identity", Status: statusError, Message: err.Error()}
	}

	output, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return checkResult{Name: "aws identity", Status: statusError, Message: err.Error()}
	}

	return checkResult{Name: "aws identity", Status: statusHealthy, Message: aws.ToString(output.Arn)}
}

// summarizeCatalogs reports catalog counts per credential strategy.
func summarizeCatalogs(pairs []connection.DescriptorPair) string {
	counts := make(map[string]int)
	metaOverrides := 0

	for _, pair := range pairs {
		counts[pair.Primary.Strategy()]++
		if pair.Metadata != pair.Primary {
			metaOverrides++
		}
	}

	return fmt.Sprintf("%d catalogs (%d secret, %d iam, %d plain, %d metadata overrides)",
		len(pairs), counts["secret"], counts["iam"], counts["plain"], metaOverrides)
}

// displayChecks shows check results in a formatted table
func displayChecks(checks []checkResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tSTATUS\tDETAIL\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t------\n")

	for _, check := range checks {
		status := check.Status
		switch check.Status {
		case statusHealthy:
			status = "✓ " + status
		case statusError:
			status = "✗ " + status
		default:
			status = "- " + status
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", check.Name, status, check.Message)
	}

	_ = w.Flush()
}
