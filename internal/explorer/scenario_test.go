// internal/explorer/scenario_test.go
package explorer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdeck/dbdeck/internal/config"
	"github.com/dbdeck/dbdeck/internal/db"
	"github.com/dbdeck/dbdeck/internal/history"
	"github.com/dbdeck/dbdeck/internal/testutil"
	"github.com/dbdeck/dbdeck/internal/value"
)

// slowQuery keeps SQLite busy long enough to cancel it.
const slowQuery = `WITH RECURSIVE cnt(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM cnt WHERE x < 500000000)
SELECT count(x) FROM cnt`

var fixtureStmts = []string{
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		order_date TIMESTAMP,
		customer_id INTEGER NOT NULL,
		total_amount DECIMAL(10,2),
		status TEXT,
		notes TEXT
	)`,
	`INSERT INTO orders (id, order_date, customer_id, total_amount, status, notes) VALUES
		(1, '2024-01-15 10:30:00', 101, 120.50, 'shipped', 'first order'),
		(2, '2024-01-16 11:00:00', 102, 75.25, 'pending', NULL),
		(3, '2024-01-17 09:45:00', 101, 300.00, 'shipped', NULL),
		(4, '2024-02-01 14:20:00', 103, 42.10, 'cancelled', 'customer request'),
		(5, '2024-02-02 16:05:00', 102, 18.75, 'pending', NULL),
		(6, NULL, 104, 99.99, 'draft', 'date unknown'),
		(7, '2024-02-03 08:15:00', 101, 5.00, 'shipped', NULL)`,
	`CREATE TABLE null_test (
		id INTEGER PRIMARY KEY,
		a_text TEXT,
		a_number DECIMAL(10,4),
		a_flag BOOLEAN,
		a_blob BLOB
	)`,
	`INSERT INTO null_test (id, a_text, a_number, a_flag, a_blob) VALUES
		(1, 'present', 1.5, 1, x'deadbeef'),
		(2, NULL, NULL, NULL, NULL)`,
}

// seedFixture creates a file-backed database so every later connection
// sees the same data.
func seedFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")

	backend, err := db.New(db.SQLite, testutil.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, backend.Connect(context.Background(), db.ConnectParams{Path: path}))
	for _, stmt := range fixtureStmts {
		_, err := backend.Exec(context.Background(), stmt)
		require.NoError(t, err)
	}
	require.NoError(t, backend.Close())
	return path
}

func startSQLite(t *testing.T, recorder Recorder) *Explorer {
	t.Helper()
	path := seedFixture(t)
	return startExplorer(t, Options{
		Profiles: staticProfiles{{ID: "lite", Name: "fixture", Kind: config.KindSQLite, Path: path}},
		History:  recorder,
	})
}

func connectSQLite(t *testing.T, e *Explorer) {
	t.Helper()
	e.Enter("lite")
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateDatabaseList && !s.Loading })
}

func TestOrdersCatalogWalk(t *testing.T) {
	e := startSQLite(t, nil)
	connectSQLite(t, e)

	snap := e.Snapshot()
	require.Equal(t, []string{"main"}, entryKeys(snap.Entries))

	e.Enter("main")
	snap = waitFor(t, e, func(s Snapshot) bool { return s.State == StateSchemaList && !s.Loading })
	require.Equal(t, []string{"main"}, entryKeys(snap.Entries))

	e.Enter("main")
	snap = waitFor(t, e, func(s Snapshot) bool { return s.State == StateTableList && !s.Loading })
	require.Equal(t, []string{"null_test", "orders"}, entryKeys(snap.Entries))

	e.Select("orders")
	e.Enter("")
	snap = waitFor(t, e, func(s Snapshot) bool { return s.State == StateColumnList && !s.Loading })
	assert.Equal(t, []string{"id", "order_date", "customer_id", "total_amount", "status", "notes"},
		entryKeys(snap.Entries))
	require.Len(t, snap.Columns, 6)
	assert.False(t, snap.Columns[2].Nullable, "customer_id is NOT NULL")
	assert.Equal(t, []string{"fixture", "main", "main", "orders"}, snap.Breadcrumb)

	e.Enter("")
	snap = waitFor(t, e, func(s Snapshot) bool { return s.State == StateRowBrowser && !s.Loading })
	require.Equal(t, 7, snap.RowCount)
	require.Len(t, snap.Columns, 6)
	assert.Equal(t, value.NewInt(6), snap.Rows[5][0])
	assert.True(t, snap.Rows[5][1].IsNull(), "order 6 has no order_date")
	assert.False(t, snap.Truncated)
}

func TestQueryAllNullRow(t *testing.T) {
	e := startSQLite(t, nil)
	connectSQLite(t, e)

	e.OpenQueryEditor()
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateQueryEditor })

	e.RunQuery("SELECT a_text, a_number, a_flag, a_blob FROM null_test WHERE id = 2")
	snap := waitFor(t, e, func(s Snapshot) bool { return s.State == StateResultView && !s.Loading })

	assert.True(t, snap.IsSelect)
	require.Equal(t, 1, snap.RowCount)
	for i, cell := range snap.Rows[0] {
		assert.True(t, cell.IsNull(), "column %d must decode to Null", i)
	}
}

func TestCancelReturnsToEditorWithNoRows(t *testing.T) {
	e := startSQLite(t, nil)
	connectSQLite(t, e)

	e.OpenQueryEditor()
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateQueryEditor })

	e.RunQuery(slowQuery)
	waitFor(t, e, func(s Snapshot) bool { return s.Loading })

	e.Cancel()
	snap := waitFor(t, e, func(s Snapshot) bool { return !s.Loading })

	assert.Equal(t, StateQueryEditor, snap.State)
	assert.Empty(t, snap.Rows, "a cancelled query leaves no residual rows")
	assert.Zero(t, snap.RowCount)
	assert.Empty(t, snap.Error, "a user cancel is not an error")

	// The session stays usable.
	e.RunQuery("SELECT 1 AS one")
	snap = waitFor(t, e, func(s Snapshot) bool { return s.State == StateResultView && !s.Loading })
	assert.Equal(t, 1, snap.RowCount)
}

func TestNewQuerySupersedesRunningOne(t *testing.T) {
	e := startSQLite(t, nil)
	connectSQLite(t, e)

	e.OpenQueryEditor()
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateQueryEditor })

	e.RunQuery(slowQuery)
	waitFor(t, e, func(s Snapshot) bool { return s.Loading })

	e.RunQuery("SELECT 42 AS answer")
	snap := waitFor(t, e, func(s Snapshot) bool { return s.State == StateResultView && !s.Loading })
	require.Equal(t, 1, snap.RowCount)
	assert.Equal(t, value.NewInt(42), snap.Rows[0][0])

	// Give the superseded run time to finish dying; nothing may change.
	time.Sleep(50 * time.Millisecond)
	snap = e.Snapshot()
	assert.Equal(t, value.NewInt(42), snap.Rows[0][0])
	assert.Empty(t, snap.Error)
}

func TestQuerySyntaxErrorStaysInEditor(t *testing.T) {
	e := startSQLite(t, nil)
	connectSQLite(t, e)

	e.OpenQueryEditor()
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateQueryEditor })

	e.RunQuery("SELEC broken")
	snap := waitFor(t, e, func(s Snapshot) bool { return s.Error != "" })

	assert.Equal(t, StateQueryEditor, snap.State)
	assert.Contains(t, snap.Error, "syntax error")
	assert.Empty(t, snap.Rows)
}

func TestRowBrowserPaging(t *testing.T) {
	path := seedFixture(t)
	e := startExplorer(t, Options{
		Profiles: staticProfiles{{ID: "lite", Name: "fixture", Kind: config.KindSQLite, Path: path}},
		PageSize: 3,
	})
	connectSQLite(t, e)

	e.Enter("main")
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateSchemaList && !s.Loading })
	e.Enter("main")
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateTableList && !s.Loading })
	e.Enter("orders")
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateColumnList && !s.Loading })
	e.Enter("")
	snap := waitFor(t, e, func(s Snapshot) bool { return s.State == StateRowBrowser && !s.Loading })

	require.Equal(t, 3, snap.RowCount)
	assert.Equal(t, value.NewInt(1), snap.Rows[0][0])
	assert.Equal(t, 0, snap.Page)

	e.NextPage()
	snap = waitFor(t, e, func(s Snapshot) bool { return s.Page == 1 && !s.Loading })
	assert.Equal(t, value.NewInt(4), snap.Rows[0][0])

	e.NextPage()
	snap = waitFor(t, e, func(s Snapshot) bool { return s.Page == 2 && !s.Loading })
	assert.Equal(t, 1, snap.RowCount, "last page holds the remaining row")
	assert.Equal(t, value.NewInt(7), snap.Rows[0][0])

	// A short page means the browser is at the end; NextPage is a no-op.
	e.NextPage()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, e.Snapshot().Page)

	e.PrevPage()
	snap = waitFor(t, e, func(s Snapshot) bool { return s.Page == 1 && !s.Loading })
	assert.Equal(t, value.NewInt(4), snap.Rows[0][0])
}

func TestQueryHistoryRecorded(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), testutil.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e := startSQLite(t, store)
	connectSQLite(t, e)

	e.OpenQueryEditor()
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateQueryEditor })

	e.RunQuery("SELECT count(*) FROM orders")
	waitFor(t, e, func(s Snapshot) bool { return s.State == StateResultView && !s.Loading })

	e.RunQuery("SELEC nope")
	waitFor(t, e, func(s Snapshot) bool { return s.Error != "" })

	require.Eventually(t, func() bool {
		entries, err := store.List(context.Background(), "lite", 10, 0)
		return err == nil && len(entries) == 2
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := store.List(context.Background(), "lite", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, history.StatusError, entries[0].Status)
	assert.Contains(t, entries[0].ErrorMessage, "syntax error")
	assert.Equal(t, history.StatusSuccess, entries[1].Status)
	assert.Equal(t, "SELECT count(*) FROM orders", entries[1].Query)
	assert.Equal(t, 1, entries[1].RowCount)
}
