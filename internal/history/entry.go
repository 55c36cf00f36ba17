// internal/history/entry.go
package history

import "time"

// Execution outcomes recorded per entry.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Entry represents a single query execution in history. Entries are keyed
// by profile ID so renaming a profile keeps its history.
type Entry struct {
	ID           int64
	ProfileID    string
	ProfileName  string
	Query        string
	ExecutedAt   time.Time
	DurationMs   int64
	RowCount     int
	Status       string
	ErrorMessage string
}

// QueryPreview returns a truncated version of the query
func (e *Entry) QueryPreview(maxLen int) string {
	q := e.Query
	if len(q) > maxLen {
		return q[:maxLen-3] + "..."
	}
	return q
}
