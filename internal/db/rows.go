// internal/db/rows.go
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/dbdeck/dbdeck/internal/value"
)

// RowStream iterates a result set, decoding each row through the owning
// backend's codec. The caller drives it like sql.Rows:
//
//	for stream.Next() {
//		row := stream.Row()
//	}
//	err := stream.Err()
//
// and must Close it when done.
type RowStream struct {
	ctx     context.Context
	rows    *sql.Rows
	codec   value.Codec
	cols    []Column
	current []value.Value
	err     error
}

func newRowStream(ctx context.Context, rows *sql.Rows, codec value.Codec) (*RowStream, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, classifyQueryError(ctx, err)
	}
	cols := make([]Column, len(types))
	for i, ct := range types {
		nullable := true
		if n, ok := ct.Nullable(); ok {
			nullable = n
		}
		cols[i] = Column{
			Name:     ct.Name(),
			Type:     ct.DatabaseTypeName(),
			Nullable: nullable,
			Position: i + 1,
		}
	}
	return &RowStream{ctx: ctx, rows: rows, codec: codec, cols: cols}, nil
}

// Columns returns the result's column descriptors in order.
func (s *RowStream) Columns() []Column { return s.cols }

// Next advances to the next row, reporting false at the end of the set or
// on error. Cancelling the query's context stops iteration at the next
// driver boundary.
func (s *RowStream) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.rows.Next() {
		s.err = s.rows.Err()
		return false
	}
	raws := make([]any, len(s.cols))
	ptrs := make([]any, len(s.cols))
	for i := range raws {
		ptrs[i] = &raws[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		s.err = err
		return false
	}
	row := make([]value.Value, len(s.cols))
	for i, raw := range raws {
		row[i] = s.codec.Decode(s.cols[i].Type, raw)
	}
	s.current = row
	return true
}

// Row returns the row decoded by the last successful Next. The slice is
// owned by the caller; the stream does not reuse it.
func (s *RowStream) Row() []value.Value { return s.current }

// Err returns the classified error that stopped iteration, if any.
func (s *RowStream) Err() error {
	return classifyQueryError(s.ctx, s.err)
}

// Close releases the underlying result set.
func (s *RowStream) Close() error { return s.rows.Close() }

// QueryResult contains a fully collected result. Every row has exactly
// len(Columns) values.
type QueryResult struct {
	Columns      []Column
	Rows         [][]value.Value
	ExecTime     time.Duration
	RowCount     int
	IsSelect     bool
	AffectedRows int64
	Truncated    bool
}
