// internal/query/executor.go
package query

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dbdeck/dbdeck/internal/db"
	"github.com/dbdeck/dbdeck/internal/value"
)

const (
	// DefaultBatchSize is the number of rows delivered per batch.
	DefaultBatchSize = 64
	// DefaultMaxRows caps how many rows a run keeps for display. The cap
	// marks the result truncated instead of failing it.
	DefaultMaxRows = 10000
)

// Options tune an executor. Zero values pick the defaults.
type Options struct {
	BatchSize int
	MaxRows   int
}

// Executor runs SQL against one session, streaming rows in bounded batches
// so large result sets never materialize wholesale before display.
type Executor struct {
	session   *db.Session
	batchSize int
	maxRows   int
	logger    *slog.Logger
}

// NewExecutor creates an executor bound to a session.
func NewExecutor(session *db.Session, opts Options, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Executor{
		session:   session,
		batchSize: batchSize,
		maxRows:   maxRows,
		logger:    logger,
	}
}

// Batch is one bounded slice of decoded rows.
type Batch struct {
	Rows [][]value.Value
}

// Run is an in-flight statement. Batches closes when the run finishes,
// fails or is cancelled; Err and Truncated are valid after that.
type Run struct {
	Columns []db.Column
	Batches <-chan Batch

	cancel    context.CancelFunc
	done      chan struct{}
	err       error
	truncated bool
	rowCount  int
}

// Cancel stops the run cooperatively. Rows already delivered must be
// discarded by the consumer; a cancelled run never becomes visible state.
func (r *Run) Cancel() { r.cancel() }

// Wait blocks until the run has finished and returns its error.
func (r *Run) Wait() error {
	<-r.done
	return r.err
}

// Err returns the run's error. Only valid after Batches has closed.
func (r *Run) Err() error { return r.err }

// Truncated reports whether the run stopped at the row cap.
func (r *Run) Truncated() bool { return r.truncated }

// Execute starts one statement and streams its rows. The returned run is
// live; the caller consumes Batches and checks Err when the channel closes.
func (e *Executor) Execute(ctx context.Context, stmt string) (*Run, error) {
	runCtx, cancel := context.WithCancel(ctx)
	stream, err := e.session.Backend().Query(runCtx, stmt)
	if err != nil {
		cancel()
		return nil, err
	}

	ch := make(chan Batch, 1)
	run := &Run{
		Columns: stream.Columns(),
		Batches: ch,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(run.done)
		defer close(ch)
		defer stream.Close()
		defer cancel()

		batch := make([][]value.Value, 0, e.batchSize)
		for stream.Next() {
			batch = append(batch, stream.Row())
			run.rowCount++
			if len(batch) == e.batchSize {
				select {
				case ch <- Batch{Rows: batch}:
					batch = make([][]value.Value, 0, e.batchSize)
				case <-runCtx.Done():
					run.err = &db.QueryError{Reason: db.QueryCancelled, Underlying: runCtx.Err()}
					return
				}
			}
			if run.rowCount >= e.maxRows {
				run.truncated = true
				break
			}
		}
		if err := stream.Err(); err != nil {
			run.err = err
			return
		}
		if len(batch) > 0 {
			select {
			case ch <- Batch{Rows: batch}:
			case <-runCtx.Done():
				run.err = &db.QueryError{Reason: db.QueryCancelled, Underlying: runCtx.Err()}
			}
		}
	}()

	return run, nil
}

// Collect runs one statement to completion and materializes it, up to the
// row cap. Row-returning statements stream through Execute; everything
// else goes through Exec and reports affected rows.
func (e *Executor) Collect(ctx context.Context, stmt string) (*db.QueryResult, error) {
	start := time.Now()
	if !returnsRows(stmt) {
		affected, err := e.session.Backend().Exec(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return &db.QueryResult{
			ExecTime:     time.Since(start),
			AffectedRows: affected,
		}, nil
	}

	run, err := e.Execute(ctx, stmt)
	if err != nil {
		return nil, err
	}
	rows := make([][]value.Value, 0)
	for batch := range run.Batches {
		rows = append(rows, batch.Rows...)
	}
	if err := run.Wait(); err != nil {
		return nil, err
	}

	result := &db.QueryResult{
		Columns:   run.Columns,
		Rows:      rows,
		ExecTime:  time.Since(start),
		RowCount:  len(rows),
		IsSelect:  true,
		Truncated: run.Truncated(),
	}
	e.logger.Debug("query finished", "rows", result.RowCount, "duration", result.ExecTime, "truncated", result.Truncated)
	return result, nil
}

// RunScript executes a semicolon-separated script sequentially, stopping at
// the first error. The last statement's result is returned, carrying the
// affected-row total of the whole script.
func (e *Executor) RunScript(ctx context.Context, script string) (*db.QueryResult, error) {
	stmts := Split(script)
	if len(stmts) == 0 {
		return nil, &db.QueryError{Reason: db.QueryRuntime, Message: "empty query"}
	}

	var last *db.QueryResult
	var totalAffected int64
	for _, stmt := range stmts {
		result, err := e.Collect(ctx, stmt)
		if err != nil {
			return nil, err
		}
		totalAffected += result.AffectedRows
		last = result
	}
	last.AffectedRows = totalAffected
	return last, nil
}

// returnsRows detects row-producing statements by leading keyword. PRAGMA
// and VALUES matter for SQLite.
func returnsRows(stmt string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(stmt))
	for _, prefix := range []string{"SELECT", "WITH", "EXPLAIN", "SHOW", "PRAGMA", "VALUES", "DESCRIBE"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Split splits a script on semicolons, respecting single and double quotes
// and backslash escapes inside them. Empty statements are dropped.
func Split(script string) []string {
	var statements []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false

	for i := 0; i < len(script); i++ {
		c := script[i]

		if (inSingleQuote || inDoubleQuote) && c == '\\' && i+1 < len(script) {
			current.WriteByte(c)
			i++
			current.WriteByte(script[i])
			continue
		}

		if c == '\'' && !inDoubleQuote {
			inSingleQuote = !inSingleQuote
		} else if c == '"' && !inSingleQuote {
			inDoubleQuote = !inDoubleQuote
		}

		if c == ';' && !inSingleQuote && !inDoubleQuote {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}
		current.WriteByte(c)
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
