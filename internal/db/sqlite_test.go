// internal/db/sqlite_test.go
package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdeck/dbdeck/internal/testutil"
	"github.com/dbdeck/dbdeck/internal/value"
)

func newConnectedSQLite(t *testing.T) Backend {
	t.Helper()
	backend, err := New(SQLite, testutil.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, backend.Connect(context.Background(), ConnectParams{Path: ":memory:"}))
	t.Cleanup(func() { backend.Close() })
	return backend
}

func seedOrders(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			order_date TIMESTAMP,
			customer_id INTEGER NOT NULL,
			total_amount DECIMAL(10,2),
			status TEXT,
			notes TEXT
		)`,
		`INSERT INTO orders VALUES (1, '2024-01-05 09:15:00', 11, 120.50, 'shipped', 'rush')`,
		`INSERT INTO orders VALUES (2, '2024-01-09 14:02:00', 12, 75.25, 'pending', NULL)`,
		`INSERT INTO orders VALUES (3, '2024-01-12 10:45:00', 11, 310.99, 'shipped', NULL)`,
		`INSERT INTO orders VALUES (4, '2024-02-01 16:30:00', 13, 42.10, 'cancelled', 'dup')`,
		`INSERT INTO orders VALUES (5, '2024-02-14 08:05:00', 14, 99.95, 'pending', NULL)`,
		`INSERT INTO orders VALUES (6, NULL, 12, 18.75, 'draft', 'no date yet')`,
		`INSERT INTO orders VALUES (7, '2024-03-03 12:00:00', 15, 250.49, 'shipped', NULL)`,
		`CREATE TABLE null_test (
			id INTEGER PRIMARY KEY,
			a_text TEXT,
			a_number DECIMAL(10,2),
			a_flag BOOLEAN,
			a_blob BLOB
		)`,
		`INSERT INTO null_test VALUES (1, 'x', 1.50, 1, X'01')`,
		`INSERT INTO null_test (id) VALUES (2)`,
	}
	for _, stmt := range stmts {
		_, err := backend.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestSQLiteConnect(t *testing.T) {
	backend := newConnectedSQLite(t)
	assert.Equal(t, SQLite, backend.Kind())
	assert.NoError(t, backend.Ping(context.Background()))
}

func TestSQLiteCatalogWalk(t *testing.T) {
	backend := newConnectedSQLite(t)
	seedOrders(t, backend)
	ctx := context.Background()

	dbs, err := backend.ListDatabases(ctx)
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, "main", dbs[0].Name)

	schemas, err := backend.ListSchemas(ctx, "main")
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, "main", schemas[0].Name)

	tables, err := backend.ListTables(ctx, "main")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "null_test", tables[0].Name)
	assert.Equal(t, "orders", tables[1].Name)
	assert.Equal(t, "main", tables[0].Schema)

	cols, err := backend.ListColumns(ctx, "main", "orders")
	require.NoError(t, err)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "order_date", "customer_id", "total_amount", "status", "notes"}, names)
	assert.False(t, cols[2].Nullable, "customer_id is NOT NULL")
	assert.True(t, cols[1].Nullable, "order_date is nullable")
	assert.Equal(t, 1, cols[0].Position)
	assert.Equal(t, 6, cols[5].Position)
}

func TestSQLiteListColumnsMissingTable(t *testing.T) {
	backend := newConnectedSQLite(t)
	_, err := backend.ListColumns(context.Background(), "main", "nope")
	var catErr *CatalogError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, CatalogNotFound, catErr.Reason)
}

func TestSQLiteQueryDecodesRows(t *testing.T) {
	backend := newConnectedSQLite(t)
	seedOrders(t, backend)

	stream, err := backend.Query(context.Background(), "SELECT * FROM orders ORDER BY id")
	require.NoError(t, err)
	defer stream.Close()

	cols := stream.Columns()
	require.Len(t, cols, 6)
	assert.Equal(t, "id", cols[0].Name)

	var rows [][]value.Value
	for stream.Next() {
		row := stream.Row()
		require.Len(t, row, len(cols))
		rows = append(rows, row)
	}
	require.NoError(t, stream.Err())
	require.Len(t, rows, 7)

	// Row with id = 6 has a null order_date, distinct from any zero value.
	assert.Equal(t, value.NewInt(6), rows[5][0])
	assert.True(t, rows[5][1].IsNull())
	assert.False(t, rows[4][1].IsNull())

	// DECIMAL column survives with exact digits, not through float64.
	assert.Equal(t, value.KindDecimal, rows[0][3].Kind)
	assert.Equal(t, "120.5", rows[0][3].Display())

	// Timestamp text decodes to a naive timestamp.
	assert.Equal(t, value.KindTimestamp, rows[0][1].Kind)
	assert.False(t, rows[0][1].HasTimezone())
}

func TestSQLiteNullTestRowIsAllNull(t *testing.T) {
	backend := newConnectedSQLite(t)
	seedOrders(t, backend)

	stream, err := backend.Query(context.Background(), "SELECT * FROM null_test WHERE id = 2")
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Next())
	row := stream.Row()
	require.NoError(t, stream.Err())

	require.Len(t, row, 5)
	assert.Equal(t, value.NewInt(2), row[0])
	for i := 1; i < len(row); i++ {
		assert.True(t, row[i].IsNull(), "column %d should be null", i)
	}
	assert.False(t, stream.Next())
}

func TestSQLiteExecReportsAffectedRows(t *testing.T) {
	backend := newConnectedSQLite(t)
	seedOrders(t, backend)

	affected, err := backend.Exec(context.Background(), "UPDATE orders SET status = 'done' WHERE status = 'shipped'")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
}

func TestSQLiteQueryErrors(t *testing.T) {
	backend := newConnectedSQLite(t)
	seedOrders(t, backend)
	ctx := context.Background()

	_, err := backend.Query(ctx, "SELEC * FROMM orders")
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, QuerySyntax, qErr.Reason)
	assert.NotEmpty(t, qErr.Message)

	_, err = backend.Query(ctx, "SELECT * FROM missing_table")
	qErr = nil
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, QueryRuntime, qErr.Reason)
}

func TestSQLiteQueryCancelled(t *testing.T) {
	backend := newConnectedSQLite(t)
	seedOrders(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := backend.Query(ctx, "SELECT * FROM orders")
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
}

func TestSessionCloseCancelsScope(t *testing.T) {
	backend := newConnectedSQLite(t)
	seedOrders(t, backend)

	session := NewSession(backend, "profile-1")
	opCtx, opCancel := context.WithCancel(session.Context())
	defer opCancel()

	require.NoError(t, session.Close())
	assert.True(t, session.Closed())
	assert.ErrorIs(t, opCtx.Err(), context.Canceled)
	assert.NoError(t, session.Close(), "close is idempotent")

	// The connection is gone; anything still holding the session errors out.
	_, err := session.Backend().Query(opCtx, "SELECT 1")
	require.Error(t, err)
}
