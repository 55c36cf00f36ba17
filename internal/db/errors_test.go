// internal/db/errors_test.go
package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyConnectError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason ConnectionReason
	}{
		{"deadline is a timeout", context.DeadlineExceeded, ConnTimeout},
		{"wrapped deadline is a timeout", fmt.Errorf("ping: %w", context.DeadlineExceeded), ConnTimeout},
		{"bad password", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}, ConnAuthFailed},
		{"rejected role", &pgconn.PgError{Code: "28000", Message: "role not permitted"}, ConnAuthFailed},
		{"missing database is unreachable", &pgconn.PgError{Code: "3D000", Message: "database does not exist"}, ConnUnreachable},
		{"refused dial", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ConnUnreachable},
		{"sqlite auth", sqlite3.Error{Code: sqlite3.ErrAuth}, ConnAuthFailed},
		{"anything else is unreachable", errors.New("weird"), ConnUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyConnectError(tt.err)
			var connErr *ConnectionError
			require.ErrorAs(t, err, &connErr)
			assert.Equal(t, tt.wantReason, connErr.Reason)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, classifyConnectError(nil))
}

func TestClassifyCatalogErrorPassesCancellation(t *testing.T) {
	err := classifyCatalogError(fmt.Errorf("op: %w", context.Canceled))
	assert.ErrorIs(t, err, context.Canceled)
	var catErr *CatalogError
	assert.False(t, errors.As(err, &catErr))
}

func TestClassifyQueryErrorPrefersContextState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The driver may report its own error after the context fired; the
	// outcome is still a cancellation.
	err := classifyQueryError(ctx, sqlite3.Error{Code: sqlite3.ErrError})
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, QueryCancelled, qErr.Reason)
	assert.True(t, IsCancelled(err))
}

func TestClassifyQueryErrorSQLiteInterrupt(t *testing.T) {
	err := classifyQueryError(context.Background(), sqlite3.Error{Code: sqlite3.ErrInterrupt})
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, QueryCancelled, qErr.Reason)
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(context.Canceled))
	assert.True(t, IsCancelled(&QueryError{Reason: QueryCancelled}))
	assert.False(t, IsCancelled(&QueryError{Reason: QueryRuntime}))
	assert.False(t, IsCancelled(errors.New("other")))
	assert.False(t, IsCancelled(nil))
}

func TestErrorMessagesKeepBackendWording(t *testing.T) {
	qErr := classifyQueryError(context.Background(), &pgconn.PgError{Code: "42601", Message: `syntax error at or near "FORM"`})
	assert.Contains(t, qErr.Error(), `syntax error at or near "FORM"`)

	connErr := classifyConnectError(&pgconn.PgError{Code: "28P01", Message: "password authentication failed for user \"app\""})
	assert.Contains(t, connErr.Error(), "password authentication failed")
}
