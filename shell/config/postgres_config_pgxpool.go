package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPGXPoolConfig creates a pgxpool.Config for one contact point.
func PostgresPGXPoolConfig(settings PostgresSettings, contactPoint string) (*pgxpool.Config, error) {
	const defaultMinConnections = int32(2)
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5
	const defaultHealthCheckPeriod = time.Minute
	const defaultConnectTimeout = time.Second * 5

	dbConfig, err := pgxpool.ParseConfig(PostgresDSN(settings, contactPoint))
	if err != nil {
		return nil, fmt.Errorf("parsing pgx config for %s: %w", contactPoint, err)
	}

	dbConfig.MaxConns = int32(max(settings.MaxConns, 1)) //nolint:gosec // bounded by configuration
	dbConfig.MinConns = min(defaultMinConnections, dbConfig.MaxConns)
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig, nil
}

// NewPGXPools connects one pool per contact point and pings each.
// On failure the pools opened so far are closed.
func NewPGXPools(ctx context.Context, settings PostgresSettings, contactPoints []string) ([]*pgxpool.Pool, error) {
	pools := make([]*pgxpool.Pool, 0, len(contactPoints))

	closeAll := func() {
		for _, pool := range pools {
			pool.Close()
		}
	}

	for _, contactPoint := range contactPoints {
		dbConfig, err := PostgresPGXPoolConfig(settings, contactPoint)
		if err != nil {
			closeAll()
			return nil, err
		}

		pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to create pgx pool for %s: %w", contactPoint, err)
		}

		if pingErr := pool.Ping(ctx); pingErr != nil {
			pool.Close()
			closeAll()
			return nil, fmt.Errorf("failed to connect to %s: %w", contactPoint, pingErr)
		}

		pools = append(pools, pool)
	}

	return pools, nil
}
