// Package postgresengine provides a PostgreSQL implementation of the time-sliced fan-out timeline store.
//
// A Store spans one or more shards, each one a Postgres database reached through pgxpool.Pool, sql.DB or sqlx.DB.
// Users are mapped to shards by consistent hashing of the username; every row of a user (its follow sets,
// its own feed and its timeline) lives on the user's shard.
//
// The query surface is a fixed set of nine parameterized statements, built with goqu and prepared on every shard
// by Prepare before first use. Migrate creates the schema from embedded, versioned migrations.
//
// Basic usage with pgx.Pool (recommended):
//
//	store, err := postgresengine.NewStoreFromPGXPools(pools, postgresengine.WithRegistry(registry))
//	if err != nil {
//		return err
//	}
//	if err = store.Migrate(ctx); err != nil {
//		return err
//	}
//	if err = store.Prepare(ctx); err != nil {
//		return err
//	}
//
// Optional observability follows the same pattern as the Registry:
//
//	store, err := postgresengine.NewStoreFromPGXPools(pools,
//		postgresengine.WithRegistry(registry),
//		postgresengine.WithLogger(slog.Default()),
//		postgresengine.WithMetrics(collector),
//		postgresengine.WithTracing(tracer),
//	)
package postgresengine
