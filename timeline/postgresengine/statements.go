package postgresengine

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	stmtReadFollowers       = "read_followers"
	stmtInsertOwnFeedEntry  = "insert_own_feed_entry"
	stmtInsertTimelineEntry = "insert_timeline_entry"
	stmtReadOwnFeed         = "read_own_feed"
	stmtReadTimeline        = "read_timeline"
	stmtAddToFollowing      = "add_to_following"
	stmtRemoveFromFollowing = "remove_from_following"
	stmtAddToFollowers      = "add_to_followers"
	stmtRemoveFromFollowers = "remove_from_followers"
	stmtReadSchemaVersion   = "read_schema_version"

	tableUsers         = "users"
	tableBarks         = "barks"
	tableTimeline      = "timeline"
	sequenceSchemaVers = "schema_version"

	colUsername  = "username"
	colFollowers = "followers"
	colFollowing = "following"
	colSlice     = "slice"
	colTS        = "ts"
	colBarkID    = "bark_id"
	colSender    = "sender"
	colMessage   = "message"
	colLastValue = "last_value"

	dialectPostgres = "postgres"
	cteSenderRow    = "sender_row"
)

// statement is one named, parameterized SQL statement of the query surface.
type statement struct {
	name string
	sql  string
}

// param renders a positional parameter.
func param(n int) exp.LiteralExpression {
	return goqu.L(fmt.Sprintf("$%d", n))
}

// textParam renders a positional parameter with an explicit text type.
func textParam(n int) exp.LiteralExpression {
	return goqu.L(fmt.Sprintf("$%d::text", n))
}

// buildStatements builds the query surface of the store for the given schema.
// The statements are built once and prepared on every shard.
func buildStatements(schema string) ([]statement, error) {
	dialect := goqu.Dialect(dialectPostgres)
	users := goqu.T(tableUsers).Schema(schema)
	barks := goqu.T(tableBarks).Schema(schema)
	timelines := goqu.T(tableTimeline).Schema(schema)

	builders := []struct {
		name  string
		build func() (string, []any, error)
	}{
		{
			name: stmtReadFollowers,
			build: dialect.From(users).
				Select(goqu.C(colFollowers)).
				Where(goqu.C(colUsername).Eq(param(1))).
				ToSQL,
		},
		{
			name: stmtInsertOwnFeedEntry,
			build: withSenderRow(
				dialect.Insert(users).Cols(colUsername).Vals(goqu.Vals{param(1)}).OnConflict(goqu.DoNothing()),
				dialect.Insert(barks).
					Cols(colUsername, colSlice, colTS, colBarkID, colMessage).
					Vals(goqu.Vals{param(1), param(2), param(3), param(4), param(5)}),
			),
		},
		{
			name: stmtInsertTimelineEntry,
			build: dialect.Insert(timelines).
				Cols(colUsername, colSlice, colTS, colBarkID, colSender, colMessage).
				Vals(goqu.Vals{param(1), param(2), param(3), param(4), param(5), param(6)}).
				ToSQL,
		},
		{
			name: stmtReadOwnFeed,
			build: dialect.From(barks).
				Select(goqu.C(colTS), goqu.C(colBarkID), goqu.C(colMessage)).
				Where(goqu.C(colUsername).Eq(param(1)), goqu.C(colSlice).Eq(param(2))).
				ToSQL,
		},
		{
			name: stmtReadTimeline,
			build: dialect.From(timelines).
				Select(goqu.C(colSender), goqu.C(colTS), goqu.C(colBarkID), goqu.C(colMessage)).
				Where(goqu.C(colUsername).Eq(param(1)), goqu.C(colSlice).Eq(param(2))).
				ToSQL,
		},
		{
			name:  stmtAddToFollowing,
			build: addToSetStatement(dialect, users, colFollowing).ToSQL,
		},
		{
			name:  stmtRemoveFromFollowing,
			build: removeFromSetStatement(dialect, users, colFollowing).ToSQL,
		},
		{
			name:  stmtAddToFollowers,
			build: addToSetStatement(dialect, users, colFollowers).ToSQL,
		},
		{
			name:  stmtRemoveFromFollowers,
			build: removeFromSetStatement(dialect, users, colFollowers).ToSQL,
		},
	}

	statements := make([]statement, 0, len(builders))
	for _, b := range builders {
		sqlQuery, _, err := b.build()
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", b.name, err)
		}

		statements = append(statements, statement{name: b.name, sql: sqlQuery})
	}

	return statements, nil
}

// withSenderRow prefixes the own-feed insert with a data-modifying CTE that creates the sender's users row
// if it is missing, so a post registers its sender within the same single write.
func withSenderRow(register, insert *goqu.InsertDataset) func() (string, []any, error) {
	return func() (string, []any, error) {
		registerSQL, _, err := register.ToSQL()
		if err != nil {
			return "", nil, err
		}

		insertSQL, _, err := insert.ToSQL()
		if err != nil {
			return "", nil, err
		}

		return fmt.Sprintf("WITH %s AS (%s) %s", cteSenderRow, registerSQL, insertSQL), nil, nil
	}
}

// addToSetStatement upserts $1 and adds $2 to its set column, keeping set semantics.
func addToSetStatement(dialect goqu.DialectWrapper, users exp.IdentifierExpression, column string) *goqu.InsertDataset {
	existing := goqu.T(tableUsers).Col(column)

	return dialect.Insert(users).
		Cols(colUsername, column).
		Vals(goqu.Vals{param(1), goqu.L("ARRAY[?]", textParam(2))}).
		OnConflict(goqu.DoUpdate(colUsername, goqu.Record{
			column: goqu.L("array_append(array_remove(?, ?), ?)", existing, textParam(2), textParam(2)),
		}))
}

// removeFromSetStatement upserts $1 and removes $2 from its set column.
func removeFromSetStatement(dialect goqu.DialectWrapper, users exp.IdentifierExpression, column string) *goqu.InsertDataset {
	existing := goqu.T(tableUsers).Col(column)

	return dialect.Insert(users).
		Cols(colUsername, column).
		Vals(goqu.Vals{param(1), goqu.L("'{}'::text[]")}).
		OnConflict(goqu.DoUpdate(colUsername, goqu.Record{
			column: goqu.L("array_remove(?, ?)", existing, textParam(2)),
		}))
}

// schemaVersionStatements returns the statements reading and advancing the migration version sequence.
func schemaVersionStatements(schema string) (statement, func(version int) (string, error), error) {
	dialect := goqu.Dialect(dialectPostgres)
	sequence := goqu.T(sequenceSchemaVers).Schema(schema)

	readSQL, _, err := dialect.From(sequence).Select(goqu.C(colLastValue)).ToSQL()
	if err != nil {
		return statement{}, nil, err
	}

	setVersion := func(version int) (string, error) {
		setSQL, _, setErr := dialect.
			Select(goqu.Func("setval", goqu.L("?::regclass", schema+"."+sequenceSchemaVers), version)).
			ToSQL()

		return setSQL, setErr
	}

	return statement{name: stmtReadSchemaVersion, sql: readSQL}, setVersion, nil
}
