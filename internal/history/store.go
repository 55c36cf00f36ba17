// internal/history/store.go
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"
)

// Entries older than this are pruned.
const retentionDays = 90

// Each profile keeps at most this many entries.
const maxPerProfile = 1000

// Store manages query history persistence in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// DefaultPath returns the XDG-compliant history database path.
func DefaultPath() (string, error) {
	return xdg.DataFile("dbdeck/history.db")
}

// NewStore opens (and if needed creates) the history database at path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id TEXT NOT NULL,
			profile_name TEXT NOT NULL,
			query TEXT NOT NULL,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			duration_ms INTEGER NOT NULL,
			row_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			error_message TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_history_profile ON history(profile_id);
		CREATE INDEX IF NOT EXISTS idx_history_executed_at ON history(executed_at);
	`)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, logger: logger}
	if err := store.cleanup(context.Background()); err != nil {
		logger.Warn("history cleanup failed", "error", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a new execution into history and prunes old entries for the
// same profile in the background.
func (s *Store) Add(ctx context.Context, entry *Entry) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO history (profile_id, profile_name, query, executed_at, duration_ms, row_count, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ProfileID,
		entry.ProfileName,
		entry.Query,
		entry.ExecutedAt,
		entry.DurationMs,
		entry.RowCount,
		entry.Status,
		entry.ErrorMessage,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id

	go s.prune(entry.ProfileID)

	return nil
}

// List returns paginated history entries for a profile, newest first.
func (s *Store) List(ctx context.Context, profileID string, limit, offset int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, profile_name, query, executed_at, duration_ms, row_count, status, error_message
		FROM history
		WHERE profile_id = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, profileID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Search finds history entries by query substring
func (s *Store) Search(ctx context.Context, profileID, querySubstr string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, profile_name, query, executed_at, duration_ms, row_count, status, error_message
		FROM history
		WHERE profile_id = ? AND query LIKE ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?
	`, profileID, "%"+querySubstr+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetByID retrieves a single history entry, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, profile_name, query, executed_at, duration_ms, row_count, status, error_message
		FROM history WHERE id = ?
	`, id)

	var e Entry
	var errMsg sql.NullString
	err := row.Scan(&e.ID, &e.ProfileID, &e.ProfileName, &e.Query, &e.ExecutedAt,
		&e.DurationMs, &e.RowCount, &e.Status, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.ErrorMessage = errMsg.String
	return &e, nil
}

// Delete removes a history entry by ID
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id)
	return err
}

// Count returns the total number of history entries for a profile
func (s *Store) Count(ctx context.Context, profileID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM history WHERE profile_id = ?
	`, profileID).Scan(&count)
	return count, err
}

// prune applies both retention rules for one profile.
func (s *Store) prune(profileID string) {
	ctx := context.Background()
	if err := s.cleanup(ctx); err != nil {
		s.logger.Warn("history cleanup failed", "error", err)
	}
	if err := s.enforceLimit(ctx, profileID, maxPerProfile); err != nil {
		s.logger.Warn("history limit enforcement failed", "profile", profileID, "error", err)
	}
}

// enforceLimit keeps only the most recent N entries per profile
func (s *Store) enforceLimit(ctx context.Context, profileID string, limit int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM history
		WHERE profile_id = ?
		AND id NOT IN (
			SELECT id FROM history
			WHERE profile_id = ?
			ORDER BY executed_at DESC, id DESC
			LIMIT ?
		)
	`, profileID, profileID, limit)
	return err
}

// cleanup removes history entries older than the retention window.
func (s *Store) cleanup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM history
		WHERE executed_at < datetime('now', ?)
	`, fmt.Sprintf("-%d days", retentionDays))
	return err
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var errMsg sql.NullString
		err := rows.Scan(&e.ID, &e.ProfileID, &e.ProfileName, &e.Query, &e.ExecutedAt,
			&e.DurationMs, &e.RowCount, &e.Status, &errMsg)
		if err != nil {
			return nil, err
		}
		e.ErrorMessage = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
