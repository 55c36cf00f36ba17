// internal/db/backend.go
package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Kind represents supported database engines
type Kind string

const (
	Postgres Kind = "postgres"
	SQLite   Kind = "sqlite"
)

// Database represents a database visible to the connected role
type Database struct {
	Name string
}

// Schema represents a namespace within a database
type Schema struct {
	Name  string
	Owner string
}

// Table represents a table within a schema
type Table struct {
	Schema string
	Name   string
	Size   string
}

// Column represents table column metadata
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
	Comment  string
	Position int
}

// ConnectParams holds database connection details. Database is the initial
// database for Postgres; Path is the database file for SQLite.
type ConnectParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Path     string
	Timeout  time.Duration
	SSH      *SSHConfig
}

// connectTimeout bounds connection establishment when the caller sets none.
const connectTimeout = 15 * time.Second

func (p ConnectParams) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return connectTimeout
}

// Backend is the capability set every engine variant provides. All blocking
// operations take a context and stop cooperatively when it is cancelled.
// Catalog calls return CatalogError, Query and Exec return QueryError, and
// Connect returns ConnectionError; none of them panic or kill the session.
type Backend interface {
	Connect(ctx context.Context, params ConnectParams) error
	Close() error
	Ping(ctx context.Context) error
	Kind() Kind

	// ListSchemas switches the active database first when the requested one
	// differs from the connected one; an empty name means the current
	// database.
	ListDatabases(ctx context.Context) ([]Database, error)
	ListSchemas(ctx context.Context, database string) ([]Schema, error)
	ListTables(ctx context.Context, schema string) ([]Table, error)
	ListColumns(ctx context.Context, schema, table string) ([]Column, error)

	Query(ctx context.Context, query string) (*RowStream, error)
	Exec(ctx context.Context, query string) (int64, error)
}

// New creates a backend instance by kind. Dispatch on the engine happens
// here once; no caller branches on Kind afterwards.
func New(kind Kind, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch kind {
	case Postgres:
		return &PostgresBackend{sqlBackend: sqlBackend{logger: logger}}, nil
	case SQLite:
		return &SQLiteBackend{sqlBackend: sqlBackend{logger: logger}}, nil
	default:
		return nil, unsupportedKind(kind)
	}
}

// QuoteQualified quotes a schema-qualified table name for interpolation into
// generated statements. Double-quote folding is shared by both engines.
func QuoteQualified(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}
