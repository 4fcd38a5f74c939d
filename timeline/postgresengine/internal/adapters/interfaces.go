package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the timeline store.
type DBAdapter interface {
	// Prepare validates and registers a statement under the given name.
	Prepare(ctx context.Context, name string, query string) error
	// Query executes the named statement and returns its rows.
	Query(ctx context.Context, name string, args ...any) (DBRows, error)
	// Exec executes the named statement.
	Exec(ctx context.Context, name string, args ...any) (DBResult, error)
	// ExecRaw executes unprepared SQL, used for schema migrations.
	ExecRaw(ctx context.Context, query string) error
	// Close releases the prepared statements; the underlying connection stays open.
	Close() error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
