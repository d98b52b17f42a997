package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/dbmux/internal/connection"
	"github.com/systmms/dbmux/internal/logging"
)

func NewCatalogsCommand(rt *Runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "catalogs",
		Short: "List catalogs parsed from connection properties",
		Long: `Parse the connection properties and show every catalog the connector
would serve, with its engine and credential strategy.

Properties are read from the configured sources (SSM path, properties file,
process environment). Connection strings are shown redacted.

Examples:
  # Catalogs from the environment (connector-style configuration)
  default='postgres://jdbc:db:5432/app?${prod/db}' dbmux catalogs

  # Catalogs from a properties file, as JSON
  dbmux --props-file dbmux.yaml --no-env catalogs --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			properties, err := loadProperties(cmd.Context(), rt)
			if err != nil {
				return err
			}

			pairs, err := connection.Build(properties)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printCatalogsJSON(pairs)
			}
			printCatalogsTable(pairs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output catalogs as JSON")

	return cmd
}

// catalogInfo is the JSON shape for one catalog.
type catalogInfo struct {
	Catalog          string `json:"catalog"`
	Engine           string `json:"engine"`
	Strategy         string `json:"strategy"`
	ConnectionString string `json:"connectionString"`
	SecretName       string `json:"secretName,omitempty"`
	Endpoint         string `json:"endpoint,omitempty"`
	Port             int    `json:"port,omitempty"`
	Username         string `json:"username,omitempty"`
	AssumeRoleARN    string `json:"assumeRoleArn,omitempty"`
	MetadataOverride bool   `json:"metadataOverride"`
}

func printCatalogsJSON(pairs []connection.DescriptorPair) error {
	catalogs := make([]catalogInfo, 0, len(pairs))
	for _, pair := range pairs {
		desc := pair.Primary
		catalogs = append(catalogs, catalogInfo{
			Catalog:          desc.Catalog,
			Engine:           desc.Engine.String(),
			Strategy:         desc.Strategy(),
			ConnectionString: logging.RedactDSN(desc.ConnectionString),
			SecretName:       desc.SecretName,
			Endpoint:         desc.Endpoint,
			Port:             desc.Port,
			Username:         desc.Username,
			AssumeRoleARN:    desc.AssumeRoleARN,
			MetadataOverride: pair.Metadata != pair.Primary,
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(catalogs); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func printCatalogsTable(pairs []connection.DescriptorPair) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CATALOG\tENGINE\tSTRATEGY\tTARGET\tMETA\n")
	_, _ = fmt.Fprintf(w, "-------\t------\t--------\t------\t----\n")

	for _, pair := range pairs {
		desc := pair.Primary

		target := "-"
		switch {
		case desc.HasSecret():
			target = desc.SecretName
		case desc.IAMAuth:
			target = fmt.Sprintf("%s@%s:%d", desc.Username, desc.Endpoint, desc.Port)
		}

		meta := "-"
		if pair.Metadata != pair.Primary {
			meta = "override"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			desc.Catalog, desc.Engine, desc.Strategy(), target, meta)
	}

	_ = w.Flush()
}
