// internal/db/errors.go
package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ConnectionReason classifies connection failures
type ConnectionReason string

const (
	ConnTimeout     ConnectionReason = "timeout"
	ConnAuthFailed  ConnectionReason = "auth failed"
	ConnUnreachable ConnectionReason = "network unreachable"
	ConnUnsupported ConnectionReason = "unsupported"
)

// ConnectionError wraps database connection failures
type ConnectionError struct {
	Reason     ConnectionReason
	Underlying error
}

func (e *ConnectionError) Error() string {
	if e.Underlying == nil {
		return fmt.Sprintf("connection failed: %s", e.Reason)
	}
	return fmt.Sprintf("connection failed: %v", e.Underlying)
}

func (e *ConnectionError) Unwrap() error { return e.Underlying }

// CatalogReason classifies catalog access failures
type CatalogReason string

const (
	CatalogPermissionDenied CatalogReason = "permission denied"
	CatalogNotFound         CatalogReason = "not found"
)

// CatalogError wraps failures while listing databases, schemas, tables or
// columns
type CatalogError struct {
	Reason     CatalogReason
	Underlying error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog access failed: %v", e.Underlying)
}

func (e *CatalogError) Unwrap() error { return e.Underlying }

// QueryReason classifies query execution failures
type QueryReason string

const (
	QuerySyntax    QueryReason = "syntax error"
	QueryRuntime   QueryReason = "runtime error"
	QueryCancelled QueryReason = "cancelled"
)

// QueryError wraps query execution failures. Message carries the backend's
// own wording for display.
type QueryError struct {
	Reason     QueryReason
	Message    string
	Underlying error
}

func (e *QueryError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("query failed: %s", e.Message)
	}
	return fmt.Sprintf("query failed: %v", e.Underlying)
}

func (e *QueryError) Unwrap() error { return e.Underlying }

// WrapConnectionError creates a ConnectionError with an explicit reason
func WrapConnectionError(reason ConnectionReason, err error) error {
	return &ConnectionError{Reason: reason, Underlying: err}
}

func unsupportedKind(kind Kind) error {
	return &ConnectionError{Reason: ConnUnsupported, Underlying: fmt.Errorf("unknown backend kind: %s", kind)}
}

// IsCancelled reports whether err is a cancelled query or a bare context
// cancellation.
func IsCancelled(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) && qe.Reason == QueryCancelled {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// classifyConnectError maps a connect or ping failure onto the connection
// taxonomy. Postgres reports auth failures via SQLSTATE class 28; everything
// the dialer never reached classifies as unreachable, with the driver's
// message kept verbatim.
func classifyConnectError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConnectionError{Reason: ConnTimeout, Underlying: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28P01", "28000":
			return &ConnectionError{Reason: ConnAuthFailed, Underlying: err}
		}
		return &ConnectionError{Reason: ConnUnreachable, Underlying: err}
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrAuth, sqlite3.ErrPerm:
			return &ConnectionError{Reason: ConnAuthFailed, Underlying: err}
		}
		return &ConnectionError{Reason: ConnUnreachable, Underlying: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ConnectionError{Reason: ConnTimeout, Underlying: err}
	}
	return &ConnectionError{Reason: ConnUnreachable, Underlying: err}
}

// classifyCatalogError maps a failed catalog call. Cancellation passes
// through untouched so stale-response handling can drop it silently.
func classifyCatalogError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42501":
			return &CatalogError{Reason: CatalogPermissionDenied, Underlying: err}
		case "28000":
			return &CatalogError{Reason: CatalogPermissionDenied, Underlying: err}
		}
		return &CatalogError{Reason: CatalogNotFound, Underlying: err}
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrAuth, sqlite3.ErrPerm:
			return &CatalogError{Reason: CatalogPermissionDenied, Underlying: err}
		}
	}
	return &CatalogError{Reason: CatalogNotFound, Underlying: err}
}

// classifyQueryError maps a failed statement. The context is consulted
// first: drivers race between reporting their own interrupt error and the
// context's, and the user-visible outcome must be "cancelled" either way.
func classifyQueryError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx != nil && ctx.Err() != nil {
		return &QueryError{Reason: QueryCancelled, Underlying: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &QueryError{Reason: QueryCancelled, Underlying: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		reason := QueryRuntime
		if pgErr.Code == "42601" {
			reason = QuerySyntax
		}
		return &QueryError{Reason: reason, Message: pgErr.Message, Underlying: err}
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		reason := QueryRuntime
		if sqliteErr.Code == sqlite3.ErrInterrupt {
			reason = QueryCancelled
		} else if strings.Contains(err.Error(), "syntax error") {
			reason = QuerySyntax
		}
		return &QueryError{Reason: reason, Message: err.Error(), Underlying: err}
	}
	if strings.Contains(err.Error(), "syntax error") {
		return &QueryError{Reason: QuerySyntax, Message: err.Error(), Underlying: err}
	}
	return &QueryError{Reason: QueryRuntime, Message: err.Error(), Underlying: err}
}
