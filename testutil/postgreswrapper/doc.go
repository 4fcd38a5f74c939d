// Package postgreswrapper provides Postgres backed Stores for integration tests.
//
// The adapter is picked by the ADAPTER_TYPE environment variable (pgxpool, sqldb or sqlx, pgxpool by default).
// Connection settings come from the BARKER_ environment variables read by config.LoadSettings,
// the shard hosts from BARKER_TEST_CONTACT_POINTS (comma separated, localhost by default).
package postgreswrapper
