// internal/explorer/snapshot.go
package explorer

func (e *Explorer) buildSnapshot() Snapshot {
	snap := Snapshot{
		State:      e.state,
		Loading:    e.loading,
		Error:      e.banner,
		Connected:  e.session != nil,
		Breadcrumb: e.breadcrumb(),
		Entries:    e.entries(),
		Selected:   e.selected,
		PageSize:   e.pageSize,
		QueryText:  e.queryText,
	}
	if e.session != nil {
		snap.ProfileID = e.profile.ID
		snap.ProfileName = e.profile.Name
		snap.Environment = e.profile.Environment
	}

	switch e.state {
	case StateColumnList:
		snap.Columns = e.columns

	case StateRowBrowser:
		if e.page != nil {
			snap.Columns = e.page.Columns
			snap.Rows = e.page.Rows
			snap.RowCount = e.page.RowCount
			snap.Truncated = e.page.Truncated
			snap.Page = e.pageNum
			snap.ExecTime = e.page.ExecTime
			snap.IsSelect = true
		}

	case StateResultView:
		if e.result != nil {
			snap.Columns = e.result.Columns
			snap.Rows = e.result.Rows
			snap.RowCount = e.result.RowCount
			snap.Truncated = e.result.Truncated
			snap.IsSelect = e.result.IsSelect
			snap.AffectedRows = e.result.AffectedRows
			snap.ExecTime = e.result.ExecTime
		}
	}
	return snap
}

func (e *Explorer) storeSnapshot() {
	snap := e.buildSnapshot()
	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
}

// publish stores the new snapshot and hands it to the updates channel,
// replacing an unread stale one instead of queueing behind it.
func (e *Explorer) publish() {
	e.storeSnapshot()
	snap := e.Snapshot()

	select {
	case e.updates <- snap:
		return
	default:
	}
	select {
	case <-e.updates:
	default:
	}
	select {
	case e.updates <- snap:
	default:
	}
}
