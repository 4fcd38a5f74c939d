package adapters

import (
	"database/sql"

	"github.com/lib/pq"
)

// stdRows wraps standard library sql.Rows to implement DBRows interface.
type stdRows struct {
	rows *sql.Rows
}

// Next advances to the next row.
func (s *stdRows) Next() bool {
	return s.rows.Next()
}

// Scan copies row values into provided destinations.
// database/sql has no native array support, so *[]string destinations are scanned through pq.Array.
func (s *stdRows) Scan(dest ...any) error {
	wrapped := make([]any, len(dest))
	for i, d := range dest {
		if strings, ok := d.(*[]string); ok {
			wrapped[i] = pq.Array(strings)
			continue
		}

		wrapped[i] = d
	}

	return s.rows.Scan(wrapped...)
}

// Err returns the error that ended the iteration, if any.
func (s *stdRows) Err() error {
	return s.rows.Err()
}

// Close closes the rows iterator.
func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdResult wraps standard library sql.Result to implement DBResult interface.
type stdResult struct {
	result sql.Result
}

// RowsAffected returns the number of rows affected by the command.
func (s *stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}

// stdArgs converts []string arguments into pq.Array values.
func stdArgs(args []any) []any {
	converted := make([]any, len(args))
	for i, arg := range args {
		if strings, ok := arg.([]string); ok {
			converted[i] = pq.Array(strings)
			continue
		}

		converted[i] = arg
	}

	return converted
}
