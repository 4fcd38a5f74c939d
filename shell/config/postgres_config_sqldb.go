package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	defaultMaxIdleConnections = 10
	defaultMaxConnLifetime    = time.Hour
	defaultMaxConnIdleTime    = time.Minute * 5
)

// pooledDB is the connection pool tuning surface shared by sql.DB and sqlx.DB.
type pooledDB interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
	SetConnMaxIdleTime(d time.Duration)
	PingContext(ctx context.Context) error
	Close() error
}

func configurePool(db pooledDB, settings PostgresSettings) {
	db.SetMaxOpenConns(max(settings.MaxConns, 1))
	db.SetMaxIdleConns(min(defaultMaxIdleConnections, max(settings.MaxConns, 1)))
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}

// NewSQLDBs opens one lib/pq sql.DB per contact point and pings each.
func NewSQLDBs(ctx context.Context, settings PostgresSettings, contactPoints []string) ([]*sql.DB, error) {
	return openAll(ctx, settings, contactPoints, func(dsn string) (*sql.DB, error) {
		return sql.Open("postgres", dsn)
	})
}

// NewSQLXs opens one lib/pq sqlx.DB per contact point and pings each.
func NewSQLXs(ctx context.Context, settings PostgresSettings, contactPoints []string) ([]*sqlx.DB, error) {
	return openAll(ctx, settings, contactPoints, func(dsn string) (*sqlx.DB, error) {
		return sqlx.Open("postgres", dsn)
	})
}

func openAll[DB pooledDB](
	ctx context.Context,
	settings PostgresSettings,
	contactPoints []string,
	open func(dsn string) (DB, error),
) ([]DB, error) {

	dbs := make([]DB, 0, len(contactPoints))

	closeAll := func() {
		for _, db := range dbs {
			_ = db.Close()
		}
	}

	for _, contactPoint := range contactPoints {
		db, err := open(PostgresDSN(settings, contactPoint))
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open database connection to %s: %w", contactPoint, err)
		}

		configurePool(db, settings)

		if pingErr := db.PingContext(ctx); pingErr != nil {
			_ = db.Close()
			closeAll()
			return nil, fmt.Errorf("failed to ping %s: %w", contactPoint, pingErr)
		}

		dbs = append(dbs, db)
	}

	return dbs, nil
}
