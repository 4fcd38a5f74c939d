package timeline

import "errors"

var ErrNilDatabaseConnection = errors.New("database connection is nil")
var ErrNoShardsSupplied = errors.New("at least one shard connection must be supplied")
var ErrEmptySchemaName = errors.New("empty schema name supplied")
var ErrNilRegistry = errors.New("metrics registry is nil")

var ErrPreparingStatementFailed = errors.New("preparing statement failed")
var ErrStatementNotPrepared = errors.New("statement was not prepared")
var ErrMigrationFailed = errors.New("applying schema migration failed")

var ErrReadingFollowersFailed = errors.New("reading followers failed")
var ErrQueryingFeedFailed = errors.New("querying feed slice failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")
var ErrWritingFailed = errors.New("writing to the store failed")
