package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffinitas/barker/testutil/observability/testdoubles"
	"github.com/caffinitas/barker/timeline"
	"github.com/caffinitas/barker/timeline/postgresengine/internal/adapters"
)

var fixedNow = time.Date(2025, 5, 17, 14, 23, 45, 123456000, time.UTC)

func givenStore(t *testing.T, shardCount int, options ...Option) (*Store, []*fakeShard) {
	t.Helper()

	fakes := make([]*fakeShard, 0, shardCount)
	shards := make([]adapters.DBAdapter, 0, shardCount)
	for i := 0; i < shardCount; i++ {
		fake := newFakeShard()
		fakes = append(fakes, fake)
		shards = append(shards, fake)
	}

	allOptions := append([]Option{WithClock(func() time.Time { return fixedNow })}, options...)
	store, err := newStore(shards, allOptions...)
	require.NoError(t, err)
	require.NoError(t, store.Prepare(context.Background()))

	t.Cleanup(func() { _ = store.Close() })

	return store, fakes
}

func shardOf(store *Store, fakes []*fakeShard, user string) *fakeShard {
	return fakes[store.partitioner.shardFor(user)]
}

func Test_NewStore_Validation(t *testing.T) {
	tests := []struct {
		name      string
		construct func() error
		expected  error
	}{
		{
			name: "no_shards",
			construct: func() error {
				_, err := NewStoreFromPGXPools(nil)
				return err
			},
			expected: timeline.ErrNoShardsSupplied,
		},
		{
			name: "nil_pgx_pool",
			construct: func() error {
				_, err := NewStoreFromPGXPools([]*pgxpool.Pool{nil})
				return err
			},
			expected: timeline.ErrNilDatabaseConnection,
		},
		{
			name: "nil_sql_db",
			construct: func() error {
				_, err := NewStoreFromSQLDBs(nil)
				return err
			},
			expected: timeline.ErrNoShardsSupplied,
		},
		{
			name: "empty_schema",
			construct: func() error {
				_, err := newStore([]adapters.DBAdapter{newFakeShard()}, WithSchema(""))
				return err
			},
			expected: timeline.ErrEmptySchemaName,
		},
		{
			name: "schema_that_is_not_an_identifier",
			construct: func() error {
				_, err := newStore([]adapters.DBAdapter{newFakeShard()}, WithSchema("barker; DROP TABLE users"))
				return err
			},
			expected: timeline.ErrEmptySchemaName,
		},
		{
			name: "nil_registry",
			construct: func() error {
				_, err := newStore([]adapters.DBAdapter{newFakeShard()}, WithRegistry(nil))
				return err
			},
			expected: timeline.ErrNilRegistry,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.construct(), tc.expected)
		})
	}
}

func Test_Prepare_PreparesTheFullStatementSetOnEveryShard(t *testing.T) {
	// setup
	_, fakes := givenStore(t, 3)

	// assert
	for _, fake := range fakes {
		assert.Len(t, fake.prepared, 9)
		for _, name := range []string{
			stmtReadFollowers, stmtInsertOwnFeedEntry, stmtInsertTimelineEntry, stmtReadOwnFeed, stmtReadTimeline,
			stmtAddToFollowing, stmtRemoveFromFollowing, stmtAddToFollowers, stmtRemoveFromFollowers,
		} {
			assert.Contains(t, fake.prepared, name)
		}
	}
}

func Test_Prepare_WhenOneShardFails_ReturnsError(t *testing.T) {
	// setup
	healthy := newFakeShard()
	broken := newFakeShard()
	broken.prepareErr = errors.New("relation barker.users does not exist")

	store, err := newStore([]adapters.DBAdapter{healthy, broken})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// act
	err = store.Prepare(context.Background())

	// assert
	assert.ErrorIs(t, err, timeline.ErrPreparingStatementFailed)
}

func Test_Store_WhenNotPrepared_OperationsFail(t *testing.T) {
	// setup
	store, err := newStore([]adapters.DBAdapter{newFakeShard()})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// act
	_, postErr := store.Post(context.Background(), "alice", "hello")

	// assert
	assert.ErrorIs(t, postErr, timeline.ErrReadingFollowersFailed)
	assert.ErrorIs(t, postErr, timeline.ErrStatementNotPrepared)
}

func Test_Post_WithZeroFollowers_WritesOnlyTheOwnFeedEntry(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 2)

	// act
	bark, err := store.Post(context.Background(), "alice", "hello world")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "alice", bark.Sender)
	assert.Equal(t, "hello world", bark.Text)
	assert.Equal(t, fixedNow, bark.Timestamp)
	assert.NotEqual(t, uuid.Nil, bark.ID)

	ownRows := shardOf(store, fakes, "alice").ownFeedRows()
	require.Len(t, ownRows, 1)
	assert.Equal(t, timeline.Slice(fixedNow), ownRows[0].slice)
	assert.Equal(t, fixedNow, ownRows[0].ts)
	assert.Equal(t, bark.ID, ownRows[0].id)

	for _, fake := range fakes {
		assert.Empty(t, fake.timelineEntries())
	}

	snapshot := store.Registry().Snapshot()
	assert.Equal(t, int64(1), snapshot.Reads.Count, "one follower read")
	assert.Equal(t, int64(1), snapshot.Writes.Count, "one own-feed write")
	assert.Equal(t, int64(2), snapshot.Successes.Count)
	assert.Equal(t, int64(0), snapshot.Errors.Count)
}

func Test_Post_ByUnknownUser_RegistersTheSenderWithinTheOwnFeedWrite(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 2)
	shard := shardOf(store, fakes, "newcomer")
	require.False(t, shard.hasUser("newcomer"))

	// act
	_, err := store.Post(context.Background(), "newcomer", "first bark")

	// assert
	require.NoError(t, err)
	assert.True(t, shard.hasUser("newcomer"))
	assert.Empty(t, shard.snapshotUser("newcomer").followers)
	assert.Equal(t, 1, shard.callCount(stmtInsertOwnFeedEntry))
	assert.Equal(t, int64(1), store.Registry().Snapshot().Writes.Count, "registration adds no write")
}

func Test_Post_WithFollowers_FansOutToEveryFollowerWithTheSameTimestampAndSlice(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 3)

	// arrange
	followers := []string{"bob", "carol", "dave", "erin", "frank"}
	shardOf(store, fakes, "alice").setFollowers("alice", followers...)

	// act
	bark, err := store.Post(context.Background(), "alice", "fan out")

	// assert
	require.NoError(t, err)

	timelineRows := 0
	for _, follower := range followers {
		var found []fakeRow
		for _, r := range shardOf(store, fakes, follower).timelineEntries() {
			if r.owner == follower {
				found = append(found, r)
			}
		}

		require.Len(t, found, 1, "follower %s must receive exactly one timeline entry", follower)
		assert.Equal(t, "alice", found[0].sender)
		assert.Equal(t, bark.Timestamp, found[0].ts)
		assert.Equal(t, timeline.Slice(bark.Timestamp), found[0].slice)
		assert.Equal(t, bark.ID, found[0].id)
		assert.Equal(t, "fan out", found[0].message)
		timelineRows++
	}

	total := 0
	for _, fake := range fakes {
		total += len(fake.ownFeedRows()) + len(fake.timelineEntries())
	}
	assert.Equal(t, 1+len(followers), total)
	assert.Equal(t, len(followers), timelineRows)
	assert.Equal(t, int64(1+len(followers)), store.Registry().Snapshot().Writes.Count)
}

func Test_Post_WhenReadingFollowersFails_AbortsBeforeAnyWrite(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1)

	// arrange
	fakes[0].failStatement(stmtReadFollowers, errors.New("unavailable"))

	// act
	_, err := store.Post(context.Background(), "alice", "never written")

	// assert
	assert.ErrorIs(t, err, timeline.ErrReadingFollowersFailed)
	assert.Equal(t, 0, fakes[0].callCount(stmtInsertOwnFeedEntry))
	assert.Equal(t, 0, fakes[0].callCount(stmtInsertTimelineEntry))

	snapshot := store.Registry().Snapshot()
	assert.Equal(t, int64(1), snapshot.Reads.Count)
	assert.Equal(t, int64(0), snapshot.Writes.Count)
	assert.Equal(t, int64(1), snapshot.Errors.Count)
}

func Test_Post_WhenSomeFanoutWritesFail_StillSucceedsAndRecordsTheFailures(t *testing.T) {
	// setup
	logHandler := testdoubles.NewLogHandlerSpy(false)
	store, fakes := givenStore(t, 1, WithLogger(slog.New(logHandler)))

	// arrange
	fakes[0].setFollowers("alice", "bob", "carol", "dave")
	fakes[0].failStatementFor(stmtInsertTimelineEntry, "carol", errors.New("write timeout"))

	// act
	_, err := store.Post(context.Background(), "alice", "partially delivered")

	// assert
	require.NoError(t, err)
	assert.Len(t, fakes[0].ownFeedRows(), 1)
	assert.Len(t, fakes[0].timelineEntries(), 2)

	snapshot := store.Registry().Snapshot()
	assert.Equal(t, int64(4), snapshot.Writes.Count, "every issued write is observed")
	assert.Equal(t, int64(1), snapshot.Errors.Count)
	assert.Equal(t, int64(4), snapshot.Successes.Count, "the follower read plus three writes")
	assert.True(t, logHandler.HasWarnLogWithMessage(logMsgFanoutWritesFailed).
		WithIntAttr(logAttrFailedWrites, 1).
		Assert())
}

func Test_Follow_UpdatesBothSidesOnTheirOwnShards(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 4)

	// act
	err := store.Follow(context.Background(), "alice", "bob")

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, shardOf(store, fakes, "alice").snapshotUser("alice").following)
	assert.Equal(t, []string{"alice"}, shardOf(store, fakes, "bob").snapshotUser("bob").followers)
	assert.Equal(t, 1, shardOf(store, fakes, "alice").callCount(stmtAddToFollowing))
	assert.Equal(t, 1, shardOf(store, fakes, "bob").callCount(stmtAddToFollowers))
	assert.Equal(t, int64(2), store.Registry().Snapshot().Writes.Count)
}

func Test_Follow_IsIdempotentOnTheSets(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1)

	// act
	require.NoError(t, store.Follow(context.Background(), "alice", "bob"))
	require.NoError(t, store.Follow(context.Background(), "alice", "bob"))

	// assert
	assert.Equal(t, []string{"bob"}, fakes[0].snapshotUser("alice").following)
	assert.Equal(t, []string{"alice"}, fakes[0].snapshotUser("bob").followers)
}

func Test_Follow_WhenOneUpdateFails_TheOtherPersistsAndNoErrorIsReturned(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1)

	// arrange
	fakes[0].failStatement(stmtAddToFollowers, errors.New("unavailable"))

	// act
	err := store.Follow(context.Background(), "alice", "bob")

	// assert
	assert.NoError(t, err)
	assert.Equal(t, []string{"bob"}, fakes[0].snapshotUser("alice").following)
	assert.Empty(t, fakes[0].snapshotUser("bob").followers)

	snapshot := store.Registry().Snapshot()
	assert.Equal(t, int64(2), snapshot.Writes.Count)
	assert.Equal(t, int64(1), snapshot.Successes.Count)
	assert.Equal(t, int64(1), snapshot.Errors.Count)
}

func Test_Unfollow_RemovesBothSides(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 2)
	require.NoError(t, store.Follow(context.Background(), "alice", "bob"))
	require.NoError(t, store.Follow(context.Background(), "alice", "carol"))

	// act
	err := store.Unfollow(context.Background(), "alice", "bob")

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, shardOf(store, fakes, "alice").snapshotUser("alice").following)
	assert.Empty(t, shardOf(store, fakes, "bob").snapshotUser("bob").followers)
	assert.Equal(t, []string{"alice"}, shardOf(store, fakes, "carol").snapshotUser("carol").followers)
}

func Test_Post_AfterFollow_ReachesTheFollowersTimeline(t *testing.T) {
	// setup
	store, _ := givenStore(t, 3)
	require.NoError(t, store.Follow(context.Background(), "bob", "alice"))

	// act
	bark, err := store.Post(context.Background(), "alice", "hi bob")
	require.NoError(t, err)
	entries, readErr := store.ReadTimeline(context.Background(), "bob", 250)

	// assert
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, bark, entries[0])

	own, ownErr := store.ReadOwnFeed(context.Background(), "alice", 250)
	require.NoError(t, ownErr)
	require.Len(t, own, 1)
	assert.Equal(t, bark, own[0])
}

func Test_ReadTimeline_CollectsNewestSliceFirstAndStopsAtMaxCount(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1)

	// arrange
	current := timeline.Slice(fixedNow)
	older := current.Add(-3 * timeline.SliceDuration)
	for i, slice := range []time.Time{older, older, current, current} {
		fakes[0].addTimelineRow(fakeRow{
			owner:   "bob",
			slice:   slice,
			ts:      slice.Add(time.Duration(i) * time.Minute),
			id:      uuid.New(),
			sender:  "alice",
			message: fmt.Sprintf("bark %d", i),
		})
	}

	// act
	entries, err := store.ReadTimeline(context.Background(), "bob", 3)

	// assert
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "bark 2", entries[0].Text)
	assert.Equal(t, "bark 3", entries[1].Text)
	assert.Equal(t, "bark 0", entries[2].Text)
	assert.Equal(t, 4, fakes[0].callCount(stmtReadTimeline), "current slice plus three older ones")
	assert.Equal(t, int64(4), store.Registry().Snapshot().Reads.Count)
}

func Test_ReadOwnFeed_NeverScansMoreThanTheSliceLimit(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1)

	// arrange
	tooOld := timeline.Slice(fixedNow).Add(-timeline.MaxSliceReads * timeline.SliceDuration)
	fakes[0].addOwnFeedRow(fakeRow{owner: "alice", slice: tooOld, ts: tooOld, id: uuid.New(), sender: "alice", message: "ancient"})

	// act
	entries, err := store.ReadOwnFeed(context.Background(), "alice", 250)

	// assert
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, timeline.MaxSliceReads, fakes[0].callCount(stmtReadOwnFeed))
	assert.Equal(t, int64(timeline.MaxSliceReads), store.Registry().Snapshot().Reads.Count)
}

func Test_ReadTimeline_WithFewerEntriesThanRequested_ScansEverySlice(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1)

	// arrange
	current := timeline.Slice(fixedNow)
	older := current.Add(-7 * timeline.SliceDuration)
	fakes[0].addTimelineRow(fakeRow{owner: "bob", slice: current, ts: fixedNow, id: uuid.New(), sender: "alice", message: "recent"})
	fakes[0].addTimelineRow(fakeRow{owner: "bob", slice: older, ts: older, id: uuid.New(), sender: "carol", message: "older"})

	// act
	entries, err := store.ReadTimeline(context.Background(), "bob", 5)

	// assert
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "recent", entries[0].Text)
	assert.Equal(t, "older", entries[1].Text)
	assert.Equal(t, timeline.MaxSliceReads, fakes[0].callCount(stmtReadTimeline))
}

func Test_ReadTimeline_WithNonPositiveMaxCount_DoesNotTouchStorage(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1)

	// act
	entries, err := store.ReadTimeline(context.Background(), "bob", 0)

	// assert
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, fakes[0].callCount(stmtReadTimeline))
	assert.Equal(t, int64(0), store.Registry().Snapshot().Reads.Count)
}

func Test_ReadTimeline_WhenASliceReadFails_ReturnsWhatWasCollectedWithTheError(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1)

	// arrange
	current := timeline.Slice(fixedNow)
	fakes[0].addTimelineRow(fakeRow{owner: "bob", slice: current, ts: fixedNow, id: uuid.New(), sender: "alice", message: "recent"})
	fakes[0].failSliceReadsBefore(current, errors.New("read timeout"))

	// act
	entries, err := store.ReadTimeline(context.Background(), "bob", 250)

	// assert
	assert.ErrorIs(t, err, timeline.ErrQueryingFeedFailed)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].Text)
	assert.Equal(t, 2, fakes[0].callCount(stmtReadTimeline))

	snapshot := store.Registry().Snapshot()
	assert.Equal(t, int64(2), snapshot.Reads.Count)
	assert.Equal(t, int64(1), snapshot.Errors.Count)
}

func Test_Store_WithRegistry_RecordsIntoTheSharedRegistry(t *testing.T) {
	// setup
	registry := timeline.NewRegistry()
	defer registry.Stop()
	store, _ := givenStore(t, 1, WithRegistry(registry))

	// act
	require.NoError(t, store.Follow(context.Background(), "alice", "bob"))

	// assert
	assert.Same(t, registry, store.Registry())
	assert.Equal(t, int64(2), registry.Snapshot().Writes.Count)
}

func Test_Observability_Post_LogsTracesAndMeasures(t *testing.T) {
	// setup
	logHandler := testdoubles.NewLogHandlerSpy(false)
	contextualLogger := testdoubles.NewContextualLoggerSpy(true)
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)

	store, fakes := givenStore(t, 1,
		WithLogger(slog.New(logHandler)),
		WithContextualLogger(contextualLogger),
		WithMetrics(metrics),
		WithTracing(tracing),
	)

	// arrange
	fakes[0].setFollowers("alice", "bob", "carol")

	// act
	_, err := store.Post(context.Background(), "alice", "observed")

	// assert
	require.NoError(t, err)

	assert.True(t, logHandler.HasInfoLogWithMessage(logMsgOperation+operationPost).
		WithDurationMS().
		WithIntAttr(logAttrFollowerCount, 3).
		Assert())
	assert.True(t, logHandler.HasDebugLogWithMessage(logMsgStatementExecuted+stmtReadFollowers).WithDurationMS().Assert())
	assert.Equal(t, 3, logHandler.CountLogsWithMessage(slog.LevelDebug, logMsgStatementExecuted+stmtInsertTimelineEntry))
	assert.True(t, contextualLogger.HasLog("info", logMsgOperation+operationPost))

	assert.True(t, tracing.HasSpanRecordForName(spanNamePrefix+operationPost).
		WithStatus(timeline.StatusSuccess).
		WithStartAttribute(spanAttrUser, "alice").
		WithEndAttribute(spanAttrFollowerCount, "3").
		Assert())

	assert.True(t, metrics.HasValueRecordForMetric(timeline.MetricFanoutSize).WithOperation(operationPost).Assert())
	assert.Equal(t, 5, metrics.HasDurationRecordForMetric(timeline.MetricOperationDuration).Count(), "1 read and 4 writes")
	assert.Equal(t, 4, metrics.HasCounterRecordForMetric(timeline.MetricOperationsTotal).WithLabel(timeline.LabelClass, "write").Count())
}

func Test_Observability_ReadTimeline_WhenAborted_FinishesTheSpanWithError(t *testing.T) {
	// setup
	tracing := testdoubles.NewTracingCollectorSpy(true)
	logHandler := testdoubles.NewLogHandlerSpy(false)
	store, fakes := givenStore(t, 1, WithTracing(tracing), WithLogger(slog.New(logHandler)))

	// arrange
	fakes[0].failStatement(stmtReadTimeline, context.DeadlineExceeded)

	// act
	_, err := store.ReadTimeline(context.Background(), "bob", 10)

	// assert
	assert.ErrorIs(t, err, timeline.ErrQueryingFeedFailed)
	assert.True(t, tracing.HasSpanRecordForName(spanNamePrefix+operationReadTimeline).
		WithStatus(timeline.StatusError).
		WithEndAttribute(spanAttrErrorType, errorTypeTimeout).
		Assert())
	assert.True(t, logHandler.HasErrorLogWithMessage(logMsgReadSliceFailed).WithAttr(logAttrError).Assert())
}

func Test_Migrate_AppliesEachMigrationOnceOnEveryShard(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 2)

	// act
	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Migrate(context.Background()))

	// assert
	for _, fake := range fakes {
		assert.Equal(t, 1, fake.rawExecsContaining("CREATE TABLE IF NOT EXISTS barker.timeline"))
		assert.Equal(t, 2, fake.rawExecsContaining("CREATE SCHEMA IF NOT EXISTS barker"))
		assert.Equal(t, 1, fake.schemaVersion)
	}
}

func Test_Migrate_ContactPointsSharingOneDatabase_ApplyEachMigrationOnce(t *testing.T) {
	// setup
	shared := newFakeShard()
	store, err := newStore([]adapters.DBAdapter{shared, shared})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// act
	err = store.Migrate(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, shared.rawExecsContaining("CREATE TABLE IF NOT EXISTS barker.timeline"))
	assert.Equal(t, 2, shared.rawExecsContaining("CREATE SCHEMA IF NOT EXISTS barker"))
	assert.Equal(t, 1, shared.schemaVersion)
}

func Test_Migrate_WhenAShardFails_StopsBeforeTheNextShard(t *testing.T) {
	// setup
	fakes := []*fakeShard{newFakeShard(), newFakeShard()}
	fakes[0].prepareErr = errors.New("connection refused")
	store, err := newStore([]adapters.DBAdapter{fakes[0], fakes[1]})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// act
	err = store.Migrate(context.Background())

	// assert
	assert.ErrorIs(t, err, timeline.ErrMigrationFailed)
	assert.Equal(t, 0, fakes[1].rawExecsContaining("CREATE SCHEMA IF NOT EXISTS barker"))
}

func Test_Migrate_UsesTheConfiguredSchema(t *testing.T) {
	// setup
	store, fakes := givenStore(t, 1, WithSchema("loadtest"))

	// act
	require.NoError(t, store.Migrate(context.Background()))

	// assert
	assert.Equal(t, 1, fakes[0].rawExecsContaining("CREATE TABLE IF NOT EXISTS loadtest.users"))
	assert.Equal(t, 0, fakes[0].rawExecsContaining("{{schema}}"))
	assert.Contains(t, fakes[0].prepared[stmtReadFollowers], `"loadtest"."users"`)
}

func Test_Close_ReleasesStatementsOnEveryShard(t *testing.T) {
	// setup
	fakes := []*fakeShard{newFakeShard(), newFakeShard()}
	store, err := newStore([]adapters.DBAdapter{fakes[0], fakes[1]})
	require.NoError(t, err)

	// act
	err = store.Close()

	// assert
	assert.NoError(t, err)
	assert.True(t, fakes[0].closed)
	assert.True(t, fakes[1].closed)
}
