package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "kcalctl",
		Short:         "kcalctl is the operator tool of the macrotrack service",
		Long:          "kcalctl computes calorie targets, applies storage migrations, dumps stored data and hashes admin passwords.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q", opts.logLevel)
			}
			log.SetLevel(level)
			log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level [trace | debug | info | warn | error]")

	cmd.AddCommand(
		newTargetsCmd(),
		newMigrateCmd(),
		newDumpCmd(),
		newHashPasswordCmd(),
	)
	return cmd
}

// storageFlags selects one of the two backends.
type storageFlags struct {
	sqlitePath  string
	postgresDSN string
}

func (f *storageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite", "", "path to the SQLite database file")
	cmd.Flags().StringVar(&f.postgresDSN, "postgres", "", "postgres connection string")
	cmd.MarkFlagsMutuallyExclusive("sqlite", "postgres")
	cmd.MarkFlagsOneRequired("sqlite", "postgres")
}
