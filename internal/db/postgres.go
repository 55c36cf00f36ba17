// internal/db/postgres.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"net"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dbdeck/dbdeck/internal/value"
)

// PostgresBackend implements Backend for PostgreSQL
type PostgresBackend struct {
	sqlBackend
	params   ConnectParams
	database string
	tunnel   *SSHTunnel
}

// Connect establishes a connection to PostgreSQL within the bounded
// connect timeout.
func (b *PostgresBackend) Connect(ctx context.Context, params ConnectParams) error {
	// Build connection string safely with url.URL
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(params.User, params.Password),
		Host:   fmt.Sprintf("%s:%d", params.Host, params.Port),
		Path:   "/" + params.Database,
	}

	connConfig, err := pgx.ParseConfig(u.String())
	if err != nil {
		return WrapConnectionError(ConnUnreachable, err)
	}

	// Setup SSH tunnel if configured
	if params.SSH != nil && params.SSH.Host != "" {
		tunnel, err := NewSSHTunnel(params.SSH, b.logger)
		if err != nil {
			return WrapConnectionError(ConnUnreachable, fmt.Errorf("ssh tunnel: %w", err))
		}
		b.tunnel = tunnel
		applyTunnel(connConfig, tunnel, params)
	}

	db, err := sql.Open("pgx", stdlib.RegisterConnConfig(connConfig))
	if err != nil {
		b.closeTunnel()
		return WrapConnectionError(ConnUnreachable, err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, params.timeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		b.closeTunnel()
		return classifyConnectError(err)
	}

	b.db = db
	b.codec = value.PostgresCodec{}
	b.params = params
	b.database = params.Database
	b.logger.Info("connected", "kind", Postgres, "host", params.Host, "database", params.Database)
	return nil
}

// applyTunnel routes the driver's dialing through the SSH tunnel. The
// hostname must resolve on the SSH server, not the local machine, so the
// lookup is a passthrough.
func applyTunnel(connConfig *pgx.ConnConfig, tunnel *SSHTunnel, params ConnectParams) {
	connConfig.LookupFunc = func(ctx context.Context, host string) ([]string, error) {
		return []string{host}, nil
	}
	connConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		remoteAddr := fmt.Sprintf("%s:%d", params.Host, params.Port)
		return tunnel.DialContext(ctx, network, remoteAddr)
	}
}

func (b *PostgresBackend) closeTunnel() {
	if b.tunnel != nil {
		b.tunnel.Close()
		b.tunnel = nil
	}
}

// Close closes the database connection and SSH tunnel
func (b *PostgresBackend) Close() error {
	dbErr := b.sqlBackend.Close()
	if b.tunnel != nil {
		if err := b.tunnel.Close(); err != nil {
			b.tunnel = nil
			if dbErr != nil {
				return fmt.Errorf("db close err: %v, tunnel close err: %w", dbErr, err)
			}
			return err
		}
		b.tunnel = nil
	}
	return dbErr
}

// Kind returns the backend kind
func (b *PostgresBackend) Kind() Kind {
	return Postgres
}

// ListDatabases returns non-template databases visible to the role.
func (b *PostgresBackend) ListDatabases(ctx context.Context) ([]Database, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	query := `
		SELECT datname
		FROM pg_database
		WHERE datistemplate = false
		ORDER BY datname`
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyCatalogError(err)
	}
	defer rows.Close()

	var databases []Database
	for rows.Next() {
		var d Database
		if err := rows.Scan(&d.Name); err != nil {
			return nil, classifyCatalogError(err)
		}
		databases = append(databases, d)
	}
	return databases, classifyCatalogError(rows.Err())
}

// ListSchemas returns user schemas of the requested database, switching the
// active connection when it differs from the current one.
func (b *PostgresBackend) ListSchemas(ctx context.Context, database string) ([]Schema, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	if database != "" && database != b.database {
		if err := b.switchDatabase(ctx, database); err != nil {
			return nil, err
		}
	}
	query := `
		SELECT schema_name, schema_owner
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
		ORDER BY schema_name`
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyCatalogError(err)
	}
	defer rows.Close()

	var schemas []Schema
	for rows.Next() {
		var s Schema
		if err := rows.Scan(&s.Name, &s.Owner); err != nil {
			return nil, classifyCatalogError(err)
		}
		schemas = append(schemas, s)
	}
	return schemas, classifyCatalogError(rows.Err())
}

// switchDatabase reconnects to another database on the same server with the
// same credentials. Postgres scopes schemas per database, so enumerating a
// different one needs its own connection.
func (b *PostgresBackend) switchDatabase(ctx context.Context, database string) error {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(b.params.User, b.params.Password),
		Host:   fmt.Sprintf("%s:%d", b.params.Host, b.params.Port),
		Path:   "/" + database,
	}
	connConfig, err := pgx.ParseConfig(u.String())
	if err != nil {
		return WrapConnectionError(ConnUnreachable, err)
	}
	if b.tunnel != nil {
		applyTunnel(connConfig, b.tunnel, b.params)
	}

	db, err := sql.Open("pgx", stdlib.RegisterConnConfig(connConfig))
	if err != nil {
		return WrapConnectionError(ConnUnreachable, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, b.params.timeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return classifyConnectError(err)
	}

	old := b.db
	b.db = db
	b.database = database
	if old != nil {
		old.Close()
	}
	b.logger.Info("switched database", "database", database)
	return nil
}

// ListTables returns base tables of a schema with their pretty-printed
// total size.
func (b *PostgresBackend) ListTables(ctx context.Context, schema string) ([]Table, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	query := `
		SELECT
			t.table_name,
			t.table_schema,
			pg_size_pretty(pg_total_relation_size(quote_ident(t.table_schema)||'.'||quote_ident(t.table_name))) AS size
		FROM information_schema.tables t
		WHERE t.table_schema = $1
		AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name`
	rows, err := b.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, classifyCatalogError(err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Schema, &t.Size); err != nil {
			return nil, classifyCatalogError(err)
		}
		tables = append(tables, t)
	}
	return tables, classifyCatalogError(rows.Err())
}

// ListColumns returns column metadata for a table in ordinal order,
// including defaults and comments.
func (b *PostgresBackend) ListColumns(ctx context.Context, schema, table string) ([]Column, error) {
	if b.db == nil {
		return nil, errNotConnected()
	}
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			COALESCE(c.column_default, ''),
			COALESCE(pgd.description, ''),
			c.ordinal_position
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_statio_all_tables st ON (c.table_schema = st.schemaname AND c.table_name = st.relname)
		LEFT JOIN pg_catalog.pg_description pgd ON (pgd.objoid = st.relid AND pgd.objsubid = c.ordinal_position)
		WHERE c.table_schema = $1
		AND c.table_name = $2
		ORDER BY c.ordinal_position`
	rows, err := b.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, classifyCatalogError(err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Default, &col.Comment, &col.Position); err != nil {
			return nil, classifyCatalogError(err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, classifyCatalogError(rows.Err())
}
