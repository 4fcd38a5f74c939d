package postgresengine

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	errorTypeTimeout    = "timeout"
	errorTypeCanceled   = "canceled"
	errorTypeConnection = "connection"
	errorTypeDatabase   = "database"
	errorTypeUnknown    = "unknown"
)

// classifyError maps a statement failure to the error type label used by metrics and spans.
func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeTimeout
	case errors.Is(err, context.Canceled):
		return errorTypeCanceled
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return errorTypeConnection
		}

		return errorTypeDatabase
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pgerrcode.IsConnectionException(string(pqErr.Code)) {
			return errorTypeConnection
		}

		return errorTypeDatabase
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return errorTypeConnection
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errorTypeTimeout
		}

		return errorTypeConnection
	}

	return errorTypeUnknown
}
