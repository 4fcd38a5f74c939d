package adapters

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caffinitas/barker/timeline"
)

// PGXAdapter implements DBAdapter for pgxpool.Pool.
//
// Prepare validates a statement on one pooled connection. Executions go through the pool with the SQL text,
// so every connection prepares and caches it on first use (pgx.QueryExecModeCacheStatement, the pgx default).
type PGXAdapter struct {
	pool       *pgxpool.Pool
	mu         sync.RWMutex
	statements map[string]string
}

// NewPGXAdapter creates a new PGX adapter.
func NewPGXAdapter(pool *pgxpool.Pool) *PGXAdapter {
	return &PGXAdapter{
		pool:       pool,
		statements: make(map[string]string),
	}
}

// Prepare prepares the statement on an acquired connection and registers it.
func (p *PGXAdapter) Prepare(ctx context.Context, name string, query string) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err = conn.Conn().Prepare(ctx, name, query); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.statements[name] = query

	return nil
}

// Query executes the named statement using the pgx pool and returns wrapped rows.
func (p *PGXAdapter) Query(ctx context.Context, name string, args ...any) (DBRows, error) {
	query, err := p.statement(name)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

// Exec executes the named statement using the pgx pool and returns wrapped result.
func (p *PGXAdapter) Exec(ctx context.Context, name string, args ...any) (DBResult, error) {
	query, err := p.statement(name)
	if err != nil {
		return nil, err
	}

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &pgxResult{tag: tag}, nil
}

// ExecRaw executes a multi-statement SQL script with the simple protocol.
func (p *PGXAdapter) ExecRaw(ctx context.Context, query string) error {
	_, err := p.pool.Exec(ctx, query, pgx.QueryExecModeSimpleProtocol)
	return err
}

// Close forgets the registered statements. The pool belongs to the caller.
func (p *PGXAdapter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statements = make(map[string]string)

	return nil
}

func (p *PGXAdapter) statement(name string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	query, ok := p.statements[name]
	if !ok {
		return "", timeline.ErrStatementNotPrepared
	}

	return query, nil
}

// pgxRows wraps pgx.Rows to implement the DBRows interface.
type pgxRows struct {
	rows pgx.Rows
}

// Next advances to the next row.
func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

// Scan copies row values into provided destinations. pgx scans text[] into *[]string natively.
func (p *pgxRows) Scan(dest ...any) error {
	return p.rows.Scan(dest...)
}

// Err returns the error that ended the iteration, if any.
func (p *pgxRows) Err() error {
	return p.rows.Err()
}

// Close closes the rows iterator.
func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}

// pgxResult wraps pgconn.CommandTag to implement the DBResult interface.
type pgxResult struct {
	tag pgconn.CommandTag
}

// RowsAffected returns the number of rows affected by the command.
func (p *pgxResult) RowsAffected() (int64, error) {
	return p.tag.RowsAffected(), nil
}
