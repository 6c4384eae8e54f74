package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/macrotrack/internal/migrate"
	"github.com/2beens/macrotrack/internal/persistence"
	"github.com/2beens/macrotrack/internal/persistence/postgres"
	"github.com/2beens/macrotrack/internal/persistence/sqlite"
	"github.com/2beens/macrotrack/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	flags := &storageFlags{}
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every stored collection as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gateway, err := openGateway(ctx, flags)
			if err != nil {
				return err
			}
			defer func() {
				if err := gateway.Close(); err != nil {
					log.Errorf("close gateway: %s", err)
				}
			}()

			snapshot, err := gateway.LoadAll(ctx)
			if err != nil {
				return fmt.Errorf("load: %w", err)
			}
			b, err := json.MarshalIndent(persistence.OrDefault(snapshot), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func openGateway(ctx context.Context, flags *storageFlags) (persistence.Gateway, error) {
	if flags.sqlitePath != "" {
		// opening would create an empty database
		exists, err := pkg.PathExists(flags.sqlitePath, false)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("no database at %s, run migrate first", flags.sqlitePath)
		}
		return sqlite.Open(ctx, flags.sqlitePath)
	}

	if err := migrate.UpPostgres(ctx, flags.postgresDSN); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	pool, err := pgxpool.New(ctx, flags.postgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return postgres.NewGateway(pool), nil
}
