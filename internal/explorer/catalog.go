// internal/explorer/catalog.go
package explorer

import (
	"context"
	"fmt"

	"github.com/dbdeck/dbdeck/internal/db"
)

func (e *Explorer) loadDatabases(keep string) {
	session := e.session
	e.issue(slotNav, func(ctx context.Context, post func(msg any)) {
		databases, err := session.Backend().ListDatabases(ctx)
		post(catalogDone{level: StateDatabaseList, databases: databases, keep: keep, err: err})
	})
}

func (e *Explorer) loadSchemas(keep string) {
	session := e.session
	database := e.currentDatabase
	e.issue(slotNav, func(ctx context.Context, post func(msg any)) {
		schemas, err := session.Backend().ListSchemas(ctx, database)
		post(catalogDone{level: StateSchemaList, schemas: schemas, keep: keep, err: err})
	})
}

func (e *Explorer) loadTables(keep string) {
	session := e.session
	schema := e.currentSchema
	e.issue(slotNav, func(ctx context.Context, post func(msg any)) {
		tables, err := session.Backend().ListTables(ctx, schema)
		post(catalogDone{level: StateTableList, tables: tables, keep: keep, err: err})
	})
}

func (e *Explorer) loadColumns(keep string) {
	session := e.session
	schema := e.currentSchema
	table := e.currentTable
	e.issue(slotNav, func(ctx context.Context, post func(msg any)) {
		columns, err := session.Backend().ListColumns(ctx, schema, table)
		post(catalogDone{level: StateColumnList, columns: columns, keep: keep, err: err})
	})
}

// loadPage fetches one page of table rows through the executor so decode
// and truncation behave exactly as for ad hoc queries.
func (e *Explorer) loadPage(page int, keep string) {
	executor := e.executor
	stmt := fmt.Sprintf("SELECT * FROM %s LIMIT %d OFFSET %d",
		db.QuoteQualified(e.currentSchema, e.currentTable), e.pageSize, page*e.pageSize)
	e.issue(slotNav, func(ctx context.Context, post func(msg any)) {
		result, err := executor.Collect(ctx, stmt)
		post(catalogDone{level: StateRowBrowser, page: result, pageNum: page, keep: keep, err: err})
	})
}

func (e *Explorer) applyCatalog(msg catalogDone) {
	if msg.err != nil {
		e.banner = msg.err.Error()
		return
	}

	switch msg.level {
	case StateDatabaseList:
		e.databases = msg.databases
	case StateSchemaList:
		e.schemas = msg.schemas
	case StateTableList:
		e.tables = msg.tables
	case StateColumnList:
		e.columns = msg.columns
	case StateRowBrowser:
		e.page = msg.page
		e.pageNum = msg.pageNum
	}

	if msg.level == e.state {
		e.reselect(msg.keep)
	}
}

// refresh re-issues the fetch behind the current state, keeping the
// selection when its key survives the reload.
func (e *Explorer) refresh() {
	e.banner = ""
	switch e.state {
	case StateConnectionList:
		e.reselect(e.selected)
	case StateDatabaseList:
		e.loadDatabases(e.selected)
	case StateSchemaList:
		e.loadSchemas(e.selected)
	case StateTableList:
		e.loadTables(e.selected)
	case StateColumnList:
		e.loadColumns(e.selected)
	case StateRowBrowser:
		e.loadPage(e.pageNum, "")
	case StateResultView:
		if e.lastRun != "" {
			e.runQuery(e.lastRun)
		}
	}
}

func (e *Explorer) turnPage(delta int) {
	if e.state != StateRowBrowser || e.page == nil {
		return
	}
	next := e.pageNum + delta
	if next < 0 {
		return
	}
	// A short page means there is nothing further.
	if delta > 0 && e.page.RowCount < e.pageSize {
		return
	}
	e.loadPage(next, "")
}

// reselect keeps the previous selection when its key still exists,
// otherwise falls back to the first entry.
func (e *Explorer) reselect(keep string) {
	entries := e.entries()
	if len(entries) == 0 {
		e.selected = ""
		return
	}
	if keep != "" {
		for _, entry := range entries {
			if entry.Key == keep {
				e.selected = keep
				return
			}
		}
	}
	e.selected = entries[0].Key
}

// entries renders the listing for the current state.
func (e *Explorer) entries() []Entry {
	switch e.state {
	case StateConnectionList:
		if e.profiles == nil {
			return nil
		}
		profiles := e.profiles.ListProfiles()
		entries := make([]Entry, 0, len(profiles))
		for _, p := range profiles {
			detail := fmt.Sprintf("%s %s", p.Kind, p.Address())
			if p.Environment != "" {
				detail += " [" + p.Environment + "]"
			}
			entries = append(entries, Entry{Key: p.ID, Label: p.Name, Detail: detail})
		}
		return entries

	case StateDatabaseList:
		entries := make([]Entry, 0, len(e.databases))
		for _, d := range e.databases {
			entries = append(entries, Entry{Key: d.Name, Label: d.Name})
		}
		return entries

	case StateSchemaList:
		entries := make([]Entry, 0, len(e.schemas))
		for _, s := range e.schemas {
			entries = append(entries, Entry{Key: s.Name, Label: s.Name, Detail: s.Owner})
		}
		return entries

	case StateTableList:
		entries := make([]Entry, 0, len(e.tables))
		for _, t := range e.tables {
			entries = append(entries, Entry{Key: t.Name, Label: t.Name, Detail: t.Size})
		}
		return entries

	case StateColumnList:
		entries := make([]Entry, 0, len(e.columns))
		for _, c := range e.columns {
			detail := c.Type
			if !c.Nullable {
				detail += " not null"
			}
			entries = append(entries, Entry{Key: c.Name, Label: c.Name, Detail: detail})
		}
		return entries
	}
	return nil
}

// breadcrumb renders the descent path for the status line.
func (e *Explorer) breadcrumb() []string {
	if e.session == nil {
		return nil
	}
	crumb := []string{e.profile.Name}
	if e.currentDatabase != "" {
		crumb = append(crumb, e.currentDatabase)
	}
	if e.currentSchema != "" {
		crumb = append(crumb, e.currentSchema)
	}
	if e.currentTable != "" {
		crumb = append(crumb, e.currentTable)
	}
	return crumb
}
