package adapters

import (
	"context"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/caffinitas/barker/timeline"
)

// SQLXAdapter implements DBAdapter for sqlx.DB.
type SQLXAdapter struct {
	db         *sqlx.DB
	mu         sync.RWMutex
	statements map[string]*sqlx.Stmt
}

// NewSQLXAdapter creates a new SQLX adapter.
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{
		db:         db,
		statements: make(map[string]*sqlx.Stmt),
	}
}

// Prepare creates a prepared statement and registers it.
func (s *SQLXAdapter) Prepare(ctx context.Context, name string, query string) error {
	stmt, err := s.db.PreparexContext(ctx, query)
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

// Query executes the named statement using the sqlx.DB and returns wrapped rows.
func (s *SQLXAdapter) Query(ctx context.Context, name string, args ...any) (DBRows, error) {
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

// Exec executes the named statement using the sqlx.DB and returns wrapped result.
func (s *SQLXAdapter) Exec(ctx context.Context, name string, args ...any) (DBResult, error) {
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
func (s *SQLXAdapter) ExecRaw(ctx context.Context, query string) error {
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Close closes all prepared statements. The sqlx.DB belongs to the caller.
func (s *SQLXAdapter) Close() error {
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

func (s *SQLXAdapter) statement(name string) (*sqlx.Stmt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stmt, ok := s.statements[name]
	if !ok {
		return nil, timeline.ErrStatementNotPrepared
	}

	return stmt, nil
}
