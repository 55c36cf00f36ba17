// internal/db/base.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/dbdeck/dbdeck/internal/value"
)

// sqlBackend carries the pieces shared by both engines: the database/sql
// handle, the codec that decodes its values, and the injected logger.
type sqlBackend struct {
	db     *sql.DB
	codec  value.Codec
	logger *slog.Logger
}

func errNotConnected() error {
	return WrapConnectionError(ConnUnreachable, errors.New("not connected"))
}

// Ping checks if the database is reachable
func (b *sqlBackend) Ping(ctx context.Context) error {
	if b.db == nil {
		return errNotConnected()
	}
	return classifyConnectError(b.db.PingContext(ctx))
}

// Close closes the database connection
func (b *sqlBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// Query runs a statement and returns its rows as a decoding stream.
func (b *sqlBackend) Query(ctx context.Context, query string) (*RowStream, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	b.logger.Debug("executing query", "query", logQuery(query))
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyQueryError(ctx, err)
	}
	return newRowStream(ctx, rows, b.codec)
}

// Exec runs a statement without rows and returns the affected count.
func (b *sqlBackend) Exec(ctx context.Context, query string) (int64, error) {
	if b.db == nil {
		return 0, errNotConnected()
	}
	b.logger.Debug("executing statement", "query", logQuery(query))
	res, err := b.db.ExecContext(ctx, query)
	if err != nil {
		return 0, classifyQueryError(ctx, err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// logQuery flattens and bounds a statement for log output.
func logQuery(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) > 120 {
		q = q[:120] + "..."
	}
	return q
}
