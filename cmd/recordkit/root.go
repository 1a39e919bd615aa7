package main

import (
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/wippyai/recordkit/errors"
)

const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

var (
	flagConfig string

	// cfg is loaded by PersistentPreRunE for every subcommand.
	cfg Config
)

var rootCmd = &cobra.Command{
	Use:   "recordkit",
	Short: "Inspect and exercise fixed-layout record contracts",
	Long: `recordkit loads record contracts from description files, prints their
frozen layouts, and creates records in an arena to show how the
synthesized accessors read and write them.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(flagConfig)
		if err != nil {
			return usageError{err}
		}
		cfg = c
		return installLogger(cfg.Log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (yaml, json or toml)")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(inspectCmd)
}

// usageError marks a failure caused by the invocation rather than the
// environment.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// args wraps a cobra argument validator so its failures exit as user
// errors.
func args(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := check(cmd, a); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// exitCode maps an error to the process exit status. Bad input, bad
// files and rejected contracts are user errors; everything else is a
// system error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	if stderrors.As(err, &ue) {
		return exitUserError
	}
	for _, phase := range []errors.Phase{errors.PhaseLoad, errors.PhaseValidate, errors.PhaseRegister} {
		if stderrors.Is(err, &errors.Error{Phase: phase}) {
			return exitUserError
		}
	}
	return exitSysError
}
