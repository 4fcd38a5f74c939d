package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/caffinitas/barker/shell/config"
	"github.com/caffinitas/barker/timeline/postgresengine"
)

const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"

	defaultContactPoint = "localhost"
)

// Wrapper owns a Store together with its connections.
type Wrapper interface {
	GetStore() *postgresengine.Store
	// Exec runs raw SQL on every shard.
	Exec(t testing.TB, query string)
	Close()
}

type pgxPoolWrapper struct {
	pools []*pgxpool.Pool
	store *postgresengine.Store
}

func (w *pgxPoolWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *pgxPoolWrapper) Exec(t testing.TB, query string) {
	for _, pool := range w.pools {
		_, err := pool.Exec(context.Background(), query)
		require.NoError(t, err, "error executing %q", query)
	}
}

func (w *pgxPoolWrapper) Close() {
	_ = w.store.Close()
	for _, pool := range w.pools {
		pool.Close()
	}
}

type sqlDBWrapper struct {
	dbs   []*sql.DB
	store *postgresengine.Store
}

func (w *sqlDBWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *sqlDBWrapper) Exec(t testing.TB, query string) {
	for _, db := range w.dbs {
		_, err := db.Exec(query)
		require.NoError(t, err, "error executing %q", query)
	}
}

func (w *sqlDBWrapper) Close() {
	_ = w.store.Close()
	for _, db := range w.dbs {
		_ = db.Close()
	}
}

type sqlxWrapper struct {
	dbs   []*sqlx.DB
	store *postgresengine.Store
}

func (w *sqlxWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *sqlxWrapper) Exec(t testing.TB, query string) {
	for _, db := range w.dbs {
		_, err := db.Exec(query)
		require.NoError(t, err, "error executing %q", query)
	}
}

func (w *sqlxWrapper) Close() {
	_ = w.store.Close()
	for _, db := range w.dbs {
		_ = db.Close()
	}
}

// CreateWrapper connects to the test shards with the adapter named by ADAPTER_TYPE,
// then migrates and prepares a Store in a fresh schema. The schema is dropped and the connections are closed
// when the test ends.
func CreateWrapper(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	ctx := context.Background()

	settings, err := config.LoadSettings("")
	require.NoError(t, err, "error loading settings in test setup")

	schema := GivenUniqueSchema(t)
	options = append([]postgresengine.Option{postgresengine.WithSchema(schema)}, options...)
	contactPoints := ContactPoints()

	var wrapper Wrapper

	switch adapterType := strings.ToLower(os.Getenv("ADAPTER_TYPE")); adapterType {
	case typePGXPool, "":
		pools, connectErr := config.NewPGXPools(ctx, settings.Postgres, contactPoints)
		require.NoError(t, connectErr, "error connecting to DB pools in test setup")
		store, storeErr := postgresengine.NewStoreFromPGXPools(pools, options...)
		require.NoError(t, storeErr, "error creating store in test setup")
		wrapper = &pgxPoolWrapper{pools: pools, store: store}

	case typeSQLDB:
		dbs, connectErr := config.NewSQLDBs(ctx, settings.Postgres, contactPoints)
		require.NoError(t, connectErr, "error connecting to DBs in test setup")
		store, storeErr := postgresengine.NewStoreFromSQLDBs(dbs, options...)
		require.NoError(t, storeErr, "error creating store in test setup")
		wrapper = &sqlDBWrapper{dbs: dbs, store: store}

	case typeSQLX:
		dbs, connectErr := config.NewSQLXs(ctx, settings.Postgres, contactPoints)
		require.NoError(t, connectErr, "error connecting to DBs in test setup")
		store, storeErr := postgresengine.NewStoreFromSQLXs(dbs, options...)
		require.NoError(t, storeErr, "error creating store in test setup")
		wrapper = &sqlxWrapper{dbs: dbs, store: store}

	default:
		t.Fatalf("unsupported wrapper type from env: %s", adapterType)
	}

	t.Cleanup(func() {
		wrapper.Exec(t, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))
		wrapper.Close()
	})

	require.NoError(t, wrapper.GetStore().Migrate(ctx), "error migrating in test setup")
	require.NoError(t, wrapper.GetStore().Prepare(ctx), "error preparing statements in test setup")

	return wrapper
}

// ContactPoints returns the shard hosts from BARKER_TEST_CONTACT_POINTS.
func ContactPoints() []string {
	raw := os.Getenv("BARKER_TEST_CONTACT_POINTS")
	if raw == "" {
		return []string{defaultContactPoint}
	}

	points := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
	}

	return points
}

// GivenUniqueSchema returns a schema name no other test run uses.
func GivenUniqueSchema(t testing.TB) string {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return "barker_it_" + strings.ReplaceAll(id.String(), "-", "")
}

// GivenUniqueUser returns a username no other test uses.
func GivenUniqueUser(t testing.TB, prefix string) string {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return prefix + "_" + id.String()
}
