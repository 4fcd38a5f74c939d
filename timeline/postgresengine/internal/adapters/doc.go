// Package adapters provide database adapter implementations for the PostgreSQL timeline store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgxpool.Pool, sql.DB (lib/pq), and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, allowing the store to work with any supported connection type per shard.
//
// Statements are registered once by name with Prepare and executed afterwards by that name only.
// The adapters handle the specifics of each library, including how text[] columns are scanned.
package adapters
