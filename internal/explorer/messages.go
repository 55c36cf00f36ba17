// internal/explorer/messages.go
package explorer

import (
	"github.com/dbdeck/dbdeck/internal/config"
	"github.com/dbdeck/dbdeck/internal/db"
)

// connectDone is sent when a connect attempt finishes.
type connectDone struct {
	profile config.Profile
	session *db.Session
	err     error
}

// catalogDone is sent when a catalog listing or row page finishes. level
// names the listing the payload belongs to; keep is the selection key to
// restore when still present.
type catalogDone struct {
	level     State
	databases []db.Database
	schemas   []db.Schema
	tables    []db.Table
	columns   []db.Column
	page      *db.QueryResult
	pageNum   int
	keep      string
	err       error
}

// queryDone is sent when query execution completes.
type queryDone struct {
	text   string
	result *db.QueryResult
	err    error
}
