package adapters

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/caffinitas/barker/timeline"
)

// SQLAdapter implements DBAdapter for sql.DB.
type SQLAdapter struct {
	db         *sql.DB
	mu         sync.RWMutex
	statements map[string]*sql.Stmt
}

// NewSQLAdapter creates a new SQL adapter.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{
		db:         db,
		statements: make(map[string]*sql.Stmt),
	}
}

// Prepare creates a pool-wide prepared statement and registers it.
func (s *SQLAdapter) Prepare(ctx context.Context, name string, query string) error {
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, exists := s.statements[name]; exists {
		_ = previous.Close()
	}
	s.statements[name] = stmt

	return nil
}

// Query executes the named statement and returns wrapped rows.
func (s *SQLAdapter) Query(ctx context.Context, name string, args ...any) (DBRows, error) {
	stmt, err := s.statement(name)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, stdArgs(args)...)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

// Exec executes the named statement and returns wrapped result.
func (s *SQLAdapter) Exec(ctx context.Context, name string, args ...any) (DBResult, error) {
	stmt, err := s.statement(name)
	if err != nil {
		return nil, err
	}

	result, err := stmt.ExecContext(ctx, stdArgs(args)...)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

// ExecRaw executes unprepared SQL.
func (s *SQLAdapter) ExecRaw(ctx context.Context, query string) error {
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Close closes all prepared statements. The sql.DB belongs to the caller.
func (s *SQLAdapter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, stmt := range s.statements {
		if err := stmt.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.statements, name)
	}

	return errors.Join(errs...)
}

func (s *SQLAdapter) statement(name string) (*sql.Stmt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stmt, ok := s.statements[name]
	if !ok {
		return nil, timeline.ErrStatementNotPrepared
	}

	return stmt, nil
}
