package postgresengine

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"


	"github.com/caffinitas/barker/timeline"
	"github.com/caffinitas/barker/timeline/postgresengine/internal/adapters"
)

const schemaPlaceholder = "{{schema}}"

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migration struct {
	id   int
	name string
	sql  string
}

// loadMigrations reads the embedded migrations, ordered by their numeric file name prefix,
// with the schema placeholder replaced.
func loadMigrations(schema string) ([]migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		content, readErr := fs.ReadFile(migrationFiles, "migrations/"+entry.Name())
		if readErr != nil {
			return nil, readErr
		}

		id, atoiErr := strconv.Atoi(strings.Split(entry.Name(), "_")[0])
		if atoiErr != nil {
			return nil, fmt.Errorf("migration %s: %w", entry.Name(), atoiErr)
		}

		migrations = append(migrations, migration{
			id:   id,
			name: entry.Name(),
			sql:  strings.ReplaceAll(string(content), schemaPlaceholder, schema),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].id < migrations[j].id })

	return migrations, nil
}

// Migrate creates the schema and applies every embedded migration not yet applied, shard by shard.
// The applied version is kept in a schema_version sequence, so running Migrate again is a no-op.
// Shards are migrated one after another: contact points that reach the same database then see each other's
// version instead of racing on the same DDL.
func (s *Store) Migrate(ctx context.Context) error {
	migrations, err := loadMigrations(s.schema)
	if err != nil {
		return errors.Join(timeline.ErrMigrationFailed, err)
	}

	readVersion, setVersion, err := schemaVersionStatements(s.schema)
	if err != nil {
		return errors.Join(timeline.ErrMigrationFailed, err)
	}

	for i, shard := range s.shards {
		if migrateErr := s.migrateShard(ctx, i, shard, migrations, readVersion, setVersion); migrateErr != nil {
			s.logError(ctx, timeline.ErrMigrationFailed.Error(), migrateErr, logAttrShard, i)
			return errors.Join(timeline.ErrMigrationFailed, fmt.Errorf("shard %d: %w", i, migrateErr))
		}
	}

	return nil
}

func (s *Store) migrateShard(
	ctx context.Context,
	shard int,
	db adapters.DBAdapter,
	migrations []migration,
	readVersion statement,
	setVersion func(version int) (string, error),
) error {

	bootstrap := fmt.Sprintf(
		"CREATE SCHEMA IF NOT EXISTS %s; CREATE SEQUENCE IF NOT EXISTS %s.%s START WITH 0 MINVALUE 0;",
		s.schema, s.schema, sequenceSchemaVers,
	)
	if err := db.ExecRaw(ctx, bootstrap); err != nil {
		return err
	}

	if err := db.Prepare(ctx, readVersion.name, readVersion.sql); err != nil {
		return err
	}

	version, err := readSchemaVersion(ctx, db, readVersion.name)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.id <= version {
			continue
		}

		if err = db.ExecRaw(ctx, m.sql); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}

		setSQL, buildErr := setVersion(m.id)
		if buildErr != nil {
			return buildErr
		}

		if err = db.ExecRaw(ctx, setSQL); err != nil {
			return err
		}

		version = m.id
		s.logOperation(ctx, logMsgMigrationApplied, logAttrShard, shard, logAttrMigration, m.name, logAttrSchemaVersion, version)
	}

	return nil
}

func readSchemaVersion(ctx context.Context, db adapters.DBAdapter, stmtName string) (int, error) {
	rows, err := db.Query(ctx, stmtName)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var version int64
	if rows.Next() {
		if err = rows.Scan(&version); err != nil {
			return 0, err
		}
	}

	return int(version), rows.Err()
}
