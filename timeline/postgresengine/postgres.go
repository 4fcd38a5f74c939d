package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/caffinitas/barker/timeline"
	"github.com/caffinitas/barker/timeline/postgresengine/internal/adapters"
)

const defaultSchemaName = "barker"

// Store is the time-sliced fan-out store on one or more Postgres shards.
//
// Every statement execution is issued as a tracked timeline.Future, so each one is recorded exactly once
// into the Registry. All methods are safe for concurrent use once Prepare has returned.
type Store struct {
	shards           []adapters.DBAdapter
	partitioner      *partitioner
	statements       []statement
	schema           string
	registry         *timeline.Registry
	ownsRegistry     bool
	tracker          *timeline.Tracker
	clock            func() time.Time
	logger           timeline.Logger
	contextualLogger timeline.ContextualLogger
	metricsCollector timeline.MetricsCollector
	tracingCollector timeline.TracingCollector
}

// NewStoreFromPGXPools creates a new Store with one pgx pool per shard.
func NewStoreFromPGXPools(pools []*pgxpool.Pool, options ...Option) (*Store, error) {
	shards := make([]adapters.DBAdapter, 0, len(pools))
	for _, pool := range pools {
		if pool == nil {
			return nil, timeline.ErrNilDatabaseConnection
		}

		shards = append(shards, adapters.NewPGXAdapter(pool))
	}

	return newStore(shards, options...)
}

// NewStoreFromSQLDBs creates a new Store with one sql.DB per shard.
func NewStoreFromSQLDBs(dbs []*sql.DB, options ...Option) (*Store, error) {
	shards := make([]adapters.DBAdapter, 0, len(dbs))
	for _, db := range dbs {
		if db == nil {
			return nil, timeline.ErrNilDatabaseConnection
		}

		shards = append(shards, adapters.NewSQLAdapter(db))
	}

	return newStore(shards, options...)
}

// NewStoreFromSQLXs creates a new Store with one sqlx.DB per shard.
func NewStoreFromSQLXs(dbs []*sqlx.DB, options ...Option) (*Store, error) {
	shards := make([]adapters.DBAdapter, 0, len(dbs))
	for _, db := range dbs {
		if db == nil {
			return nil, timeline.ErrNilDatabaseConnection
		}

		shards = append(shards, adapters.NewSQLXAdapter(db))
	}

	return newStore(shards, options...)
}

func newStore(shards []adapters.DBAdapter, options ...Option) (*Store, error) {
	if len(shards) == 0 {
		return nil, timeline.ErrNoShardsSupplied
	}

	s := &Store{
		shards:      shards,
		partitioner: newPartitioner(len(shards)),
		schema:      defaultSchemaName,
		clock:       time.Now,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	if s.registry == nil {
		s.registry = timeline.NewRegistry()
		s.ownsRegistry = true
	}

	statements, err := buildStatements(s.schema)
	if err != nil {
		return nil, errors.Join(timeline.ErrPreparingStatementFailed, err)
	}

	s.statements = statements
	s.tracker = timeline.NewTracker(s.registry, s.metricsCollector, classifyError)

	return s, nil
}

// Registry returns the Registry the Store records into.
func (s *Store) Registry() *timeline.Registry {
	return s.registry
}

// Prepare prepares the full statement set on every shard concurrently.
// Any failure is returned; the Store must not be used when Prepare fails.
func (s *Store) Prepare(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	for i, shard := range s.shards {
		i, shard := i, shard
		g.Go(func() error {
			for _, stmt := range s.statements {
				if err := shard.Prepare(gCtx, stmt.name, stmt.sql); err != nil {
					s.logError(gCtx, logMsgPrepareFailed, err, logAttrStatement, stmt.name, logAttrShard, i)
					return errors.Join(timeline.ErrPreparingStatementFailed, fmt.Errorf("shard %d, %s: %w", i, stmt.name, err))
				}
			}

			return nil
		})
	}

	return g.Wait()
}

// Close releases the prepared statements on every shard and stops the Registry if the Store created it.
// The connections belong to the caller and stay open.
func (s *Store) Close() error {
	var errs []error
	for i, shard := range s.shards {
		if err := shard.Close(); err != nil {
			s.logWarn(context.Background(), logMsgCloseStatementFailed, err, logAttrShard, i)
			errs = append(errs, err)
		}
	}

	if s.ownsRegistry {
		s.registry.Stop()
	}

	return errors.Join(errs...)
}

// Follow makes actor follow target: target is added to actor's following set and actor to target's followers set.
//
// Both updates are issued concurrently and awaited. They are independent: when one fails, the other's effect
// persists. Failures are recorded, logged at warn level, and not returned.
func (s *Store) Follow(ctx context.Context, actor, target string) error {
	return s.updateFollowGraph(ctx, operationFollow, actor, target, stmtAddToFollowing, stmtAddToFollowers)
}

// Unfollow is the symmetric removal of Follow with the same contract.
func (s *Store) Unfollow(ctx context.Context, actor, target string) error {
	return s.updateFollowGraph(ctx, operationUnfollow, actor, target, stmtRemoveFromFollowing, stmtRemoveFromFollowers)
}

func (s *Store) updateFollowGraph(ctx context.Context, operation, actor, target, followingStmt, followersStmt string) error {
	tracing, ctx := s.startTracing(ctx, operation, map[string]string{spanAttrUser: actor, spanAttrTarget: target})
	start := time.Now()

	errs := timeline.AwaitAll(
		s.write(ctx, actor, followingStmt, actor, target),
		s.write(ctx, target, followersStmt, target, actor),
	)

	duration := time.Since(start)
	failed := timeline.CountFailures(errs)

	if failed > 0 {
		s.logWarn(ctx, logMsgFanoutWritesFailed, errors.Join(errs...),
			logAttrOperationLabel, operation, logAttrUser, actor, logAttrTarget, target, logAttrFailedWrites, failed)
	}

	s.logOperation(ctx, operation,
		logAttrUser, actor, logAttrTarget, target, logAttrFailedWrites, failed, logAttrDurationMS, toMilliseconds(duration))

	tracing.finish(fanoutStatus(failed), map[string]string{spanAttrFailedWrites: strconv.Itoa(failed)}, duration)

	return nil
}

// Post writes a new bark of sender into the sender's own feed and into the timeline of every current follower.
//
// The followers are read first with one blocking read; its failure aborts the post before any write and is
// returned wrapped in timeline.ErrReadingFollowersFailed. The timestamp (truncated to microseconds, the precision
// of timestamptz) and the slice are computed once after that read and shared by all 1 + len(followers) writes.
// The writes are issued concurrently and awaited; their failures are recorded and logged but do not fail the post.
func (s *Store) Post(ctx context.Context, sender, text string) (timeline.Bark, error) {
	tracing, ctx := s.startTracing(ctx, operationPost, map[string]string{spanAttrUser: sender})
	start := time.Now()

	followers, err := s.readFollowers(ctx, sender).Get()
	if err != nil {
		s.logError(ctx, logMsgReadFollowersFailed, err, logAttrUser, sender)
		tracing.finishError(err, time.Since(start))

		return timeline.Bark{}, errors.Join(timeline.ErrReadingFollowersFailed, err)
	}

	bark := timeline.Bark{
		ID:        timeline.NewBarkID(),
		Sender:    sender,
		Timestamp: s.clock().UTC().Truncate(time.Microsecond),
		Text:      text,
	}
	slice := timeline.Slice(bark.Timestamp)

	writes := make([]*timeline.Future[struct{}], 0, 1+len(followers))
	writes = append(writes, s.write(ctx, sender, stmtInsertOwnFeedEntry, sender, slice, bark.Timestamp, bark.ID, text))

	for _, follower := range followers {
		writes = append(writes, s.write(ctx, follower, stmtInsertTimelineEntry, follower, slice, bark.Timestamp, bark.ID, sender, text))
	}

	errs := timeline.AwaitAll(writes...)
	duration := time.Since(start)
	failed := timeline.CountFailures(errs)

	if failed > 0 {
		s.logWarn(ctx, logMsgFanoutWritesFailed, errors.Join(errs...),
			logAttrOperationLabel, operationPost, logAttrUser, sender, logAttrFailedWrites, failed)
	}

	s.recordValueMetricsContext(ctx, timeline.MetricFanoutSize, float64(len(followers)), operationPost)
	s.logOperation(ctx, operationPost,
		logAttrUser, sender, logAttrFollowerCount, len(followers), logAttrFailedWrites, failed,
		logAttrDurationMS, toMilliseconds(duration))

	tracing.finish(fanoutStatus(failed), map[string]string{
		spanAttrFollowerCount: strconv.Itoa(len(followers)),
		spanAttrFailedWrites:  strconv.Itoa(failed),
	}, duration)

	return bark, nil
}

// ReadOwnFeed returns up to maxCount barks the user posted, scanning slices backward from the current one.
//
// Within a slice, entries come in the order Postgres returns them; across slices, the newest slice comes first.
// At most timeline.MaxSliceReads slices are scanned. A failed slice read stops the scan; the entries collected
// so far are returned together with an error wrapping timeline.ErrQueryingFeedFailed.
func (s *Store) ReadOwnFeed(ctx context.Context, user string, maxCount int) (timeline.Barks, error) {
	return s.readFeed(ctx, operationReadOwnFeed, stmtReadOwnFeed, user, maxCount, func(rows adapters.DBRows) (timeline.Bark, error) {
		bark := timeline.Bark{Sender: user}
		err := rows.Scan(&bark.Timestamp, &bark.ID, &bark.Text)

		return bark, err
	})
}

// ReadTimeline returns up to maxCount barks of the accounts the user follows, with the same scan contract as ReadOwnFeed.
func (s *Store) ReadTimeline(ctx context.Context, user string, maxCount int) (timeline.Barks, error) {
	return s.readFeed(ctx, operationReadTimeline, stmtReadTimeline, user, maxCount, func(rows adapters.DBRows) (timeline.Bark, error) {
		bark := timeline.Bark{}
		err := rows.Scan(&bark.Sender, &bark.Timestamp, &bark.ID, &bark.Text)

		return bark, err
	})
}

type rowScanner func(rows adapters.DBRows) (timeline.Bark, error)

func (s *Store) readFeed(
	ctx context.Context,
	operation string,
	stmtName string,
	user string,
	maxCount int,
	scan rowScanner,
) (timeline.Barks, error) {

	barks := make(timeline.Barks, 0)
	if maxCount <= 0 {
		return barks, nil
	}

	tracing, ctx := s.startTracing(ctx, operation, map[string]string{spanAttrUser: user})
	start := time.Now()
	shard := s.partitioner.shardFor(user)
	slice := timeline.Slice(s.clock())
	scanned := 0

	for scanned < timeline.MaxSliceReads && len(barks) < maxCount {
		remaining := maxCount - len(barks)
		sliceBarks, err := s.readSlice(ctx, shard, stmtName, user, slice, remaining, scan).Get()
		scanned++
		barks = append(barks, sliceBarks...)

		if err != nil {
			s.logError(ctx, logMsgReadSliceFailed, err, logAttrUser, user, logAttrSlicesScanned, scanned)
			tracing.finishError(err, time.Since(start))

			return barks, errors.Join(timeline.ErrQueryingFeedFailed, err)
		}

		slice = timeline.PreviousSlice(slice)
	}

	duration := time.Since(start)

	s.recordValueMetricsContext(ctx, timeline.MetricEntriesRead, float64(len(barks)), operation)
	s.logOperation(ctx, operation,
		logAttrUser, user, logAttrEntryCount, len(barks), logAttrSlicesScanned, scanned,
		logAttrDurationMS, toMilliseconds(duration))

	tracing.finish(timeline.StatusSuccess, map[string]string{
		spanAttrEntryCount:    strconv.Itoa(len(barks)),
		spanAttrSlicesScanned: strconv.Itoa(scanned),
	}, duration)

	return barks, nil
}

// readFollowers issues the tracked read of the follower set of user. An unknown user has no followers.
func (s *Store) readFollowers(ctx context.Context, user string) *timeline.Future[[]string] {
	shard := s.partitioner.shardFor(user)

	return timeline.Track(ctx, s.tracker, timeline.ReadOperation, stmtReadFollowers, func(ctx context.Context) ([]string, error) {
		start := time.Now()
		rows, err := s.shards[shard].Query(ctx, stmtReadFollowers, user)
		s.logStatement(ctx, stmtReadFollowers, shard, time.Since(start))
		if err != nil {
			return nil, err
		}
		defer s.closeRows(ctx, rows)

		followers := make([]string, 0)
		for rows.Next() {
			if scanErr := rows.Scan(&followers); scanErr != nil {
				s.logError(ctx, logMsgScanRowFailed, scanErr, logAttrStatement, stmtReadFollowers)
				return nil, errors.Join(timeline.ErrScanningDBRowFailed, scanErr)
			}
		}

		return followers, rows.Err()
	})
}

// readSlice issues the tracked read of one slice, keeping at most limit entries.
// Entries scanned before a failure are returned together with the failure.
func (s *Store) readSlice(
	ctx context.Context,
	shard int,
	stmtName string,
	user string,
	slice time.Time,
	limit int,
	scan rowScanner,
) *timeline.Future[timeline.Barks] {

	return timeline.Track(ctx, s.tracker, timeline.ReadOperation, stmtName, func(ctx context.Context) (timeline.Barks, error) {
		start := time.Now()
		rows, err := s.shards[shard].Query(ctx, stmtName, user, slice)
		s.logStatement(ctx, stmtName, shard, time.Since(start))
		if err != nil {
			return nil, err
		}
		defer s.closeRows(ctx, rows)

		barks := make(timeline.Barks, 0)
		for len(barks) < limit && rows.Next() {
			bark, scanErr := scan(rows)
			if scanErr != nil {
				s.logError(ctx, logMsgScanRowFailed, scanErr, logAttrStatement, stmtName)
				return barks, errors.Join(timeline.ErrScanningDBRowFailed, scanErr)
			}

			barks = append(barks, bark)
		}

		return barks, rows.Err()
	})
}

// write issues one tracked write to the shard owning the given user.
func (s *Store) write(ctx context.Context, owner string, stmtName string, args ...any) *timeline.Future[struct{}] {
	shard := s.partitioner.shardFor(owner)

	return timeline.Track(ctx, s.tracker, timeline.WriteOperation, stmtName, func(ctx context.Context) (struct{}, error) {
		start := time.Now()
		_, err := s.shards[shard].Exec(ctx, stmtName, args...)
		s.logStatement(ctx, stmtName, shard, time.Since(start))
		if err != nil {
			return struct{}{}, errors.Join(timeline.ErrWritingFailed, err)
		}

		return struct{}{}, nil
	})
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

func fanoutStatus(failed int) string {
	if failed > 0 {
		return spanStatusPartialFanout
	}

	return timeline.StatusSuccess
}
