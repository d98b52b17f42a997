package commands

import (
	"github.com/systmms/dbmux/internal/logging"
)

// Runtime carries the global flag state shared by every dbmux command. The
// root command fills it in before any subcommand runs; tests construct it
// directly.
type Runtime struct {
	Logger *logging.Logger

	// Property sources. SSM and file load in that order, then the process
	// environment on top unless NoEnv is set.
	PropsFile string
	SSMPath   string
	NoEnv     bool

	// Region overrides the AWS default-config region chain when set.
	Region string
}
