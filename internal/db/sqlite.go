// internal/db/sqlite.go
package db

import (
	"context"
	"fmt"
	"strings"

	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dbdeck/dbdeck/internal/value"
)

// SQLiteBackend implements Backend for SQLite
type SQLiteBackend struct {
	sqlBackend
	path string
}

// Connect opens the SQLite database file
func (b *SQLiteBackend) Connect(ctx context.Context, params ConnectParams) error {
	// The database is a filepath; strip a sqlite:// prefix if present
	dsn := params.Path
	if dsn == "" {
		dsn = params.Database
	}
	dsn = strings.TrimPrefix(dsn, "sqlite://")

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return WrapConnectionError(ConnUnreachable, err)
	}

	// Apply SQLite pragmas for better performance and safety
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return classifyConnectError(fmt.Errorf("pragma foreign_keys: %w", err))
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 10000"); err != nil {
		db.Close()
		return classifyConnectError(fmt.Errorf("pragma busy_timeout: %w", err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, params.timeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return classifyConnectError(err)
	}

	b.db = db
	b.codec = value.SQLiteCodec{}
	b.path = dsn
	b.logger.Info("connected", "kind", SQLite, "path", dsn)
	return nil
}

// Kind returns the backend kind
func (b *SQLiteBackend) Kind() Kind {
	return SQLite
}

// ListDatabases returns the attached databases, "main" first.
func (b *SQLiteBackend) ListDatabases(ctx context.Context) ([]Database, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	rows, err := b.db.QueryContext(ctx, "PRAGMA database_list")
	if err != nil {
		return nil, classifyCatalogError(err)
	}
	defer rows.Close()

	var databases []Database
	for rows.Next() {
		var seq int
		var name string
		var file any
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return nil, classifyCatalogError(err)
		}
		databases = append(databases, Database{Name: name})
	}
	return databases, classifyCatalogError(rows.Err())
}

// ListSchemas returns the single implicit schema of an attached database.
// SQLite has no schema level of its own; the attachment name stands in so
// the catalog walk stays uniform across engines.
func (b *SQLiteBackend) ListSchemas(ctx context.Context, database string) ([]Schema, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	if database == "" {
		database = "main"
	}
	return []Schema{{Name: database}}, nil
}

// ListTables returns user tables, excluding SQLite's internal ones.
func (b *SQLiteBackend) ListTables(ctx context.Context, schema string) ([]Table, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyCatalogError(err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name); err != nil {
			return nil, classifyCatalogError(err)
		}
		t.Schema = schema
		tables = append(tables, t)
	}
	return tables, classifyCatalogError(rows.Err())
}

// ListColumns returns column metadata from table_info in declaration order.
func (b *SQLiteBackend) ListColumns(ctx context.Context, schema, table string) ([]Column, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLiteIdent(table))
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyCatalogError(err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var cid int
		var name string
		var dataType string
		var notNull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return nil, classifyCatalogError(err)
		}
		columns = append(columns, Column{
			Name:     name,
			Type:     dataType,
			Nullable: notNull == 0,
			Default:  dfltValue.String,
			Position: cid + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classifyCatalogError(err)
	}
	if len(columns) == 0 {
		return nil, &CatalogError{Reason: CatalogNotFound, Underlying: fmt.Errorf("no such table: %s", table)}
	}
	return columns, nil
}

// quoteSQLiteIdent double-quotes an identifier for PRAGMA calls, which do
// not take bound parameters.
func quoteSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
