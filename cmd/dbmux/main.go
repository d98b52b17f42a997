package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/dbmux/cmd/dbmux/commands"
	"github.com/systmms/dbmux/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		noColor   bool
		debug     bool
		propsFile string
		ssmPath   string
		noEnv     bool
		region    string
	)

	// Shared runtime, filled in once flags are parsed
	rt := &commands.Runtime{}

	rootCmd := &cobra.Command{
		Use:   "dbmux",
		Short: "Identity-scoped credentials for a multiplexing database connector",
		Long: `dbmux resolves short-lived database credentials scoped to the calling
identity and parses per-catalog connection configuration for a multi-tenant
database connector.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			rt.Logger = logging.New(debug, noColor)
			rt.PropsFile = propsFile
			rt.SSMPath = ssmPath
			rt.NoEnv = noEnv
			rt.Region = region
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&propsFile, "props-file", "", "Connection properties YAML file")
	rootCmd.PersistentFlags().StringVar(&ssmPath, "ssm-path", "", "SSM parameter path to load properties from")
	rootCmd.PersistentFlags().BoolVar(&noEnv, "no-env", false, "Do not read properties from the process environment")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region override")

	// Add commands
	rootCmd.AddCommand(
		commands.NewCatalogsCommand(rt),
		commands.NewResolveCommand(rt),
		commands.NewDoctorCommand(rt),
	)

	return rootCmd.Execute()
}
