// internal/explorer/state.go
package explorer

import (
	"time"

	"github.com/dbdeck/dbdeck/internal/db"
	"github.com/dbdeck/dbdeck/internal/value"
)

// State identifies what the explorer is currently showing.
type State string

const (
	StateConnectionList State = "CONNECTIONS"
	StateDatabaseList   State = "DATABASES"
	StateSchemaList     State = "SCHEMAS"
	StateTableList      State = "TABLES"
	StateColumnList     State = "COLUMNS"
	StateRowBrowser     State = "ROWS"
	StateQueryEditor    State = "QUERY"
	StateResultView     State = "RESULTS"
)

// Entry is one row of a listing state. Key identifies the entry across
// refreshes; Label and Detail are for display.
type Entry struct {
	Key    string
	Label  string
	Detail string
}

// Snapshot is the read-only view the renderer consumes. It is rebuilt
// wholesale on every change; the renderer never mutates it.
type Snapshot struct {
	State   State
	Loading bool
	Error   string

	// Connection context.
	Connected   bool
	ProfileID   string
	ProfileName string
	Environment string
	Breadcrumb  []string

	// Listing states.
	Entries  []Entry
	Selected string

	// Row browser and result view.
	Columns      []db.Column
	Rows         [][]value.Value
	RowCount     int
	Truncated    bool
	Page         int
	PageSize     int
	IsSelect     bool
	AffectedRows int64
	ExecTime     time.Duration

	// Query editor.
	QueryText string
}

// frame is one back-stack element: where to return to and what was
// selected there.
type frame struct {
	state    State
	selected string
}

// slot partitions async operations for the sequence guard. A response is
// applied only if its sequence number is still the latest for its slot.
type slot int

const (
	slotConnect slot = iota
	slotNav
	slotQuery
	slotCount
)

func (s slot) String() string {
	switch s {
	case slotConnect:
		return "connect"
	case slotNav:
		return "nav"
	case slotQuery:
		return "query"
	default:
		return "unknown"
	}
}
