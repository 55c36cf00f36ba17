// internal/explorer/query.go
package explorer

import (
	"context"
	"strings"
	"time"

	"github.com/dbdeck/dbdeck/internal/config"
	"github.com/dbdeck/dbdeck/internal/db"
	"github.com/dbdeck/dbdeck/internal/history"
)

// runQuery starts the given SQL (or the editor buffer when empty) on the
// query slot; a still-running query is cancelled and superseded.
func (e *Explorer) runQuery(text string) {
	if e.session == nil {
		return
	}
	if text == "" {
		text = e.queryText
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	e.queryText = text
	e.lastRun = text
	e.banner = ""

	executor := e.executor
	profile := e.profile
	e.issue(slotQuery, func(ctx context.Context, post func(msg any)) {
		start := time.Now()
		result, err := executor.RunScript(ctx, text)
		e.record(profile, text, start, result, err)
		post(queryDone{text: text, result: result, err: err})
	})
}

func (e *Explorer) applyQuery(msg queryDone) {
	if msg.err != nil {
		// User-initiated cancels are bumped away before arriving; one can
		// still surface during session teardown. Nothing to show then.
		if db.IsCancelled(msg.err) {
			return
		}
		e.banner = msg.err.Error()
		return
	}

	e.result = msg.result
	if e.state != StateResultView {
		e.push()
		e.state = StateResultView
	}
}

// record writes the execution to history. Runs on the query goroutine;
// cancelled runs are not history.
func (e *Explorer) record(profile config.Profile, text string, start time.Time, result *db.QueryResult, err error) {
	if e.history == nil || db.IsCancelled(err) {
		return
	}

	entry := &history.Entry{
		ProfileID:   profile.ID,
		ProfileName: profile.Name,
		Query:       text,
		ExecutedAt:  start,
		DurationMs:  time.Since(start).Milliseconds(),
		Status:      history.StatusSuccess,
	}
	switch {
	case err != nil:
		entry.Status = history.StatusError
		entry.ErrorMessage = err.Error()
	case result.IsSelect:
		entry.RowCount = result.RowCount
	default:
		entry.RowCount = int(result.AffectedRows)
	}

	if addErr := e.history.Add(context.Background(), entry); addErr != nil {
		e.logger.Warn("history write failed", "error", addErr)
	}
}
