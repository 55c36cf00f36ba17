// internal/history/store_test.go
package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdeck/dbdeck/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"), testutil.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addEntry(t *testing.T, store *Store, profileID, query string, at time.Time) *Entry {
	t.Helper()
	entry := &Entry{
		ProfileID:   profileID,
		ProfileName: "test",
		Query:       query,
		ExecutedAt:  at,
		DurationMs:  12,
		RowCount:    3,
		Status:      StatusSuccess,
	}
	require.NoError(t, store.Add(context.Background(), entry))
	return entry
}

func TestAddAssignsID(t *testing.T) {
	store := newTestStore(t)
	entry := addEntry(t, store, "p1", "SELECT 1", time.Now())
	assert.NotZero(t, entry.ID)
}

func TestListNewestFirstScopedToProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	addEntry(t, store, "p1", "SELECT 1", base)
	addEntry(t, store, "p1", "SELECT 2", base.Add(time.Minute))
	addEntry(t, store, "p2", "SELECT 3", base.Add(2*time.Minute))

	entries, err := store.List(ctx, "p1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SELECT 2", entries[0].Query)
	assert.Equal(t, "SELECT 1", entries[1].Query)

	page, err := store.List(ctx, "p1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "SELECT 1", page[0].Query)
}

func TestSearchMatchesSubstring(t *testing.T) {
	store := newTestStore(t)
	base := time.Now()

	addEntry(t, store, "p1", "SELECT * FROM orders", base)
	addEntry(t, store, "p1", "SELECT * FROM customers", base.Add(time.Second))
	addEntry(t, store, "p1", "DELETE FROM orders WHERE id = 1", base.Add(2*time.Second))

	entries, err := store.Search(context.Background(), "p1", "orders", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "DELETE FROM orders WHERE id = 1", entries[0].Query)
}

func TestGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	added := addEntry(t, store, "p1", "SELECT 1", time.Now())

	got, err := store.GetByID(ctx, added.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SELECT 1", got.Query)

	missing, err := store.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := addEntry(t, store, "p1", "SELECT 1", time.Now())
	addEntry(t, store, "p1", "SELECT 2", time.Now())

	count, err := store.Count(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.Delete(ctx, first.ID))

	count, err = store.Count(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestErrorEntriesKeepMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &Entry{
		ProfileID:    "p1",
		ProfileName:  "test",
		Query:        "SELEC 1",
		ExecutedAt:   time.Now(),
		Status:       StatusError,
		ErrorMessage: `near "SELEC": syntax error`,
	}
	require.NoError(t, store.Add(ctx, entry))

	entries, err := store.List(ctx, "p1", 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusError, entries[0].Status)
	assert.Equal(t, `near "SELEC": syntax error`, entries[0].ErrorMessage)
}

func TestEnforceLimitKeepsNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		addEntry(t, store, "p1", "SELECT "+string(rune('1'+i)), base.Add(time.Duration(i)*time.Minute))
	}

	require.NoError(t, store.enforceLimit(ctx, "p1", 2))

	entries, err := store.List(ctx, "p1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SELECT 5", entries[0].Query)
	assert.Equal(t, "SELECT 4", entries[1].Query)
}

func TestQueryPreview(t *testing.T) {
	e := Entry{Query: "SELECT id, name FROM customers WHERE region = 'eu'"}
	assert.Equal(t, "SELECT id, name FROM customers WHERE region = 'eu'", e.QueryPreview(100))
	assert.Equal(t, "SELECT id,...", e.QueryPreview(13))
}
