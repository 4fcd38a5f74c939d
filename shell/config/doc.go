// Package config loads the barker settings and builds the database connections and OpenTelemetry
// providers from them.
//
// Settings come from defaults, an optional config file and BARKER_ prefixed environment variables,
// in increasing order of precedence. Every contact point passed on the command line becomes one
// shard connection: a pgxpool.Pool, a sql.DB or a sqlx.DB depending on postgres.driver.
package config
