// Package sqlite is the single-file local persistence gateway built on the pure
// Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/migrate"
	"github.com/2beens/macrotrack/internal/persistence"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// connCheckTimeout bounds the ping that classifies a failed statement.
const connCheckTimeout = time.Second

type Gateway struct {
	db   *sql.DB
	path string
}

var _ persistence.Gateway = (*Gateway)(nil)

// Open opens (or creates) the database file and applies the migrations.
// Failing to reach the file is reported as a ConnectionError.
func Open(ctx context.Context, path string) (*Gateway, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &persistence.ConnectionError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &persistence.ConnectionError{Op: "open", Err: err}
	}
	// one writer, keeps the file lock simple
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &persistence.ConnectionError{Op: "open", Err: err}
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if err := migrate.Up(ctx, db, migrate.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debugf("sqlite gateway opened: %s", path)
	return &Gateway{
		db:   db,
		path: path,
	}, nil
}

func (g *Gateway) LoadAll(ctx context.Context) (_ *diary.Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.sqlite.load_all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	snapshot := persistence.EmptySnapshot()
	for _, c := range persistence.RowCollections {
		if err := g.loadCollection(ctx, snapshot, c); err != nil {
			return nil, g.wrapConnErr(ctx, "load "+string(c), fmt.Errorf("load %s: %w", c, err))
		}
	}

	var activeProfileID string
	scanErr := g.db.QueryRowContext(
		ctx,
		`SELECT active_profile_id FROM settings WHERE id = 1;`,
	).Scan(&activeProfileID)
	switch {
	case scanErr == nil:
		snapshot.ActiveProfileID = activeProfileID
	case errors.Is(scanErr, sql.ErrNoRows):
	default:
		return nil, g.wrapConnErr(ctx, "load settings", fmt.Errorf("load settings: %w", scanErr))
	}

	span.SetAttributes(attribute.Int("profiles", len(snapshot.Profiles)))
	return persistence.OrDefault(snapshot), nil
}

func (g *Gateway) loadCollection(ctx context.Context, snapshot *diary.Snapshot, c diary.Collection) error {
	rows, err := g.db.QueryContext(
		ctx,
		fmt.Sprintf(`SELECT data FROM %s ORDER BY position;`, persistence.Table(c)),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("rows scan: %w", err)
		}
		if err := persistence.DecodeInto(snapshot, c, []byte(data)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (g *Gateway) Sync(ctx context.Context, dirty diary.DirtySet) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.sqlite.sync")
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
				Err:        g.wrapConnErr(ctx, "sync "+string(c), err),
			}
		}
	}
	return nil
}

func (g *Gateway) replaceCollection(ctx context.Context, snapshot *diary.Snapshot, c diary.Collection) (err error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Errorf("rollback %s: %s", c, rbErr)
			}
			return
		}
		err = tx.Commit()
	}()

	if c == diary.CollectionSettings {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO settings (id, active_profile_id) VALUES (1, ?)
				ON CONFLICT (id) DO UPDATE SET active_profile_id = excluded.active_profile_id;`,
			snapshot.ActiveProfileID,
		)
		return err
	}

	rows, err := persistence.EncodeRows(snapshot, c)
	if err != nil {
		return err
	}

	table := persistence.Table(c)
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s;`, table)); err != nil {
		return err
	}

	var insert string
	if persistence.Owned(c) {
		insert = fmt.Sprintf(`INSERT INTO %s (id, profile_id, date, position, data) VALUES (?, ?, ?, ?, ?);`, table)
	} else {
		insert = fmt.Sprintf(`INSERT INTO %s (id, position, data) VALUES (?, ?, ?);`, table)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range rows {
		if persistence.Owned(c) {
			_, err = stmt.ExecContext(ctx, row.ID, row.ProfileID, row.Date, i, string(row.Data))
		} else {
			_, err = stmt.ExecContext(ctx, row.ID, i, string(row.Data))
		}
		if err != nil {
			return fmt.Errorf("insert %s %s: %w", c, row.ID, err)
		}
	}

	return nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		return &persistence.ConnectionError{Op: "ping", Err: err}
	}
	return nil
}

// wrapConnErr turns failures to open, lock or read the database file into a
// ConnectionError. A missing schema counts too, the file is not usable until
// it is migrated again. Anything else is checked with a ping.
func (g *Gateway) wrapConnErr(ctx context.Context, op string, err error) error {
	if err == nil || ctx.Err() != nil {
		return err
	}

	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_CANTOPEN,
			sqlite3.SQLITE_IOERR,
			sqlite3.SQLITE_BUSY,
			sqlite3.SQLITE_LOCKED,
			sqlite3.SQLITE_READONLY,
			sqlite3.SQLITE_PERM,
			sqlite3.SQLITE_NOTADB,
			sqlite3.SQLITE_CORRUPT:
			return &persistence.ConnectionError{Op: op, Err: err}
		}
		if strings.Contains(sqliteErr.Error(), "no such table") {
			return &persistence.ConnectionError{Op: op, Err: err}
		}
		return err
	}

	pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), connCheckTimeout)
	defer cancel()
	if pingErr := g.db.PingContext(pingCtx); pingErr != nil {
		return &persistence.ConnectionError{Op: op, Err: err}
	}
	return err
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) Path() string {
	return g.path
}
