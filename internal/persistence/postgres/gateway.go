// Package postgres is the PostgreSQL persistence gateway. Each collection is a
// table of JSONB documents that is replaced wholesale inside one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/persistence"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// PgxPool is the part of *pgxpool.Pool the gateway needs. pgxmock.PgxPoolIface
// implements it too.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type Gateway struct {
	db PgxPool
}

var _ persistence.Gateway = (*Gateway)(nil)

func NewGateway(db PgxPool) *Gateway {
	return &Gateway{
		db: db,
	}
}

func (g *Gateway) LoadAll(ctx context.Context) (_ *diary.Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.postgres.load_all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	snapshot := persistence.EmptySnapshot()
	for _, c := range persistence.RowCollections {
		if err := g.loadCollection(ctx, snapshot, c); err != nil {
			return nil, wrapConnErr("load "+string(c), err)
		}
	}

	var activeProfileID string
	scanErr := g.db.QueryRow(
		ctx,
		`SELECT active_profile_id FROM settings WHERE id = 1;`,
	).Scan(&activeProfileID)
	switch {
	case scanErr == nil:
		snapshot.ActiveProfileID = activeProfileID
	case errors.Is(scanErr, pgx.ErrNoRows):
		// nothing saved yet
	default:
		return nil, wrapConnErr("load settings", scanErr)
	}

	span.SetAttributes(
		attribute.Int("profiles", len(snapshot.Profiles)),
		attribute.Int("entries", len(snapshot.Entries)),
	)
	return persistence.OrDefault(snapshot), nil
}

func (g *Gateway) loadCollection(ctx context.Context, snapshot *diary.Snapshot, c diary.Collection) error {
	rows, err := g.db.Query(
		ctx,
		fmt.Sprintf(`SELECT data FROM %s ORDER BY position;`, persistence.Table(c)),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("rows scan: %w", err)
		}
		if err := persistence.DecodeInto(snapshot, c, data); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (g *Gateway) Sync(ctx context.Context, dirty diary.DirtySet) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.postgres.sync")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("collections", len(dirty.Collections)))

	if dirty.Data == nil {
		return nil
	}

	for _, c := range dirty.Collections {
		if err := g.replaceCollection(ctx, dirty.Data, c); err != nil {
			return &persistence.SyncError{
				Collection: c,
				Err:        wrapConnErr("sync "+string(c), err),
			}
		}
		log.Tracef("collection %s synced", c)
	}
	return nil
}

// replaceCollection deletes all rows of the collection table and inserts the
// current ones in a single transaction.
func (g *Gateway) replaceCollection(ctx context.Context, snapshot *diary.Snapshot, c diary.Collection) (err error) {
	tx, err := g.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Errorf("rollback %s: %s", c, rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	if c == diary.CollectionSettings {
		_, err = tx.Exec(
			ctx,
			`INSERT INTO settings (id, active_profile_id) VALUES (1, $1)
				ON CONFLICT (id) DO UPDATE SET active_profile_id = EXCLUDED.active_profile_id;`,
			snapshot.ActiveProfileID,
		)
		return err
	}

	rows, err := persistence.EncodeRows(snapshot, c)
	if err != nil {
		return err
	}

	table := persistence.Table(c)
	if _, err = tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s;`, table)); err != nil {
		return err
	}

	for i, row := range rows {
		if persistence.Owned(c) {
			_, err = tx.Exec(
				ctx,
				fmt.Sprintf(`INSERT INTO %s (id, profile_id, date, position, data) VALUES ($1, $2, $3, $4, $5);`, table),
				row.ID, row.ProfileID, row.Date, i, row.Data,
			)
		} else {
			_, err = tx.Exec(
				ctx,
				fmt.Sprintf(`INSERT INTO %s (id, position, data) VALUES ($1, $2, $3);`, table),
				row.ID, i, row.Data,
			)
		}
		if err != nil {
			return fmt.Errorf("insert %s %s: %w", c, row.ID, err)
		}
	}

	return nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.db.Ping(ctx); err != nil {
		return &persistence.ConnectionError{Op: "ping", Err: err}
	}
	return nil
}

func (g *Gateway) Close() error {
	g.db.Close()
	return nil
}

// wrapConnErr turns dial and connect failures into a ConnectionError.
func wrapConnErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) {
		return &persistence.ConnectionError{Op: op, Err: err}
	}
	return err
}
