package main

import (
	"fmt"

	"github.com/2beens/macrotrack/internal/migrate"
	"github.com/2beens/macrotrack/internal/persistence/sqlite"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	flags := &storageFlags{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if flags.postgresDSN != "" {
				if err := migrate.UpPostgres(ctx, flags.postgresDSN); err != nil {
					return fmt.Errorf("migrate postgres: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "postgres schema up to date")
				return nil
			}

			// opening the gateway applies the migrations
			gateway, err := sqlite.Open(ctx, flags.sqlitePath)
			if err != nil {
				return fmt.Errorf("migrate sqlite: %w", err)
			}
			if err := gateway.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sqlite schema up to date: %s\n", flags.sqlitePath)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
