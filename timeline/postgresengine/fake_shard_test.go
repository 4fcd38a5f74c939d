package postgresengine

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caffinitas/barker/timeline"
	"github.com/caffinitas/barker/timeline/postgresengine/internal/adapters"
)

// fakeShard is an in-memory DBAdapter that understands the statement set of the Store by name.
type fakeShard struct {
	mu            sync.Mutex
	prepared      map[string]string
	prepareErr    error
	failing       map[string]error
	failingFor    map[string]error // keyed by "<statement>/<first argument>"
	users         map[string]*fakeUser
	ownFeed       []fakeRow
	timelineRows  []fakeRow
	calls         map[string]int
	rawExecs      []string
	schemaVersion int
	closed        bool

	failSlicesBefore time.Time
	failSliceErr     error
}

type fakeUser struct {
	followers []string
	following []string
}

type fakeRow struct {
	owner   string
	slice   time.Time
	ts      time.Time
	id      uuid.UUID
	sender  string
	message string
}

func newFakeShard() *fakeShard {
	return &fakeShard{
		prepared:   make(map[string]string),
		failing:    make(map[string]error),
		failingFor: make(map[string]error),
		users:      make(map[string]*fakeUser),
		calls:      make(map[string]int),
	}
}

func (f *fakeShard) Prepare(_ context.Context, name string, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.prepareErr != nil {
		return f.prepareErr
	}

	f.prepared[name] = query

	return nil
}

func (f *fakeShard) Query(_ context.Context, name string, args ...any) (adapters.DBRows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.check(name, args); err != nil {
		return nil, err
	}

	switch name {
	case stmtReadFollowers:
		user, ok := f.users[args[0].(string)]
		if !ok {
			return &fakeRows{}, nil
		}
		return &fakeRows{values: [][]any{{slices.Clone(user.followers)}}}, nil

	case stmtReadOwnFeed, stmtReadTimeline:
		if f.failSliceErr != nil && args[1].(time.Time).Before(f.failSlicesBefore) {
			return nil, f.failSliceErr
		}
	}

	switch name {
	case stmtReadOwnFeed:
		values := make([][]any, 0)
		for _, r := range f.rowsFor(f.ownFeed, args) {
			values = append(values, []any{r.ts, r.id, r.message})
		}
		return &fakeRows{values: values}, nil

	case stmtReadTimeline:
		values := make([][]any, 0)
		for _, r := range f.rowsFor(f.timelineRows, args) {
			values = append(values, []any{r.sender, r.ts, r.id, r.message})
		}
		return &fakeRows{values: values}, nil

	case stmtReadSchemaVersion:
		return &fakeRows{values: [][]any{{int64(f.schemaVersion)}}}, nil

	default:
		return nil, fmt.Errorf("fake shard: %s is not a query", name)
	}
}

func (f *fakeShard) Exec(_ context.Context, name string, args ...any) (adapters.DBResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.check(name, args); err != nil {
		return nil, err
	}

	switch name {
	case stmtInsertOwnFeedEntry:
		f.user(args[0].(string))
		f.ownFeed = append(f.ownFeed, fakeRow{
			owner:   args[0].(string),
			slice:   args[1].(time.Time),
			ts:      args[2].(time.Time),
			id:      args[3].(uuid.UUID),
			sender:  args[0].(string),
			message: args[4].(string),
		})

	case stmtInsertTimelineEntry:
		f.timelineRows = append(f.timelineRows, fakeRow{
			owner:   args[0].(string),
			slice:   args[1].(time.Time),
			ts:      args[2].(time.Time),
			id:      args[3].(uuid.UUID),
			sender:  args[4].(string),
			message: args[5].(string),
		})

	case stmtAddToFollowing:
		u := f.user(args[0].(string))
		u.following = addToSet(u.following, args[1].(string))

	case stmtAddToFollowers:
		u := f.user(args[0].(string))
		u.followers = addToSet(u.followers, args[1].(string))

	case stmtRemoveFromFollowing:
		u := f.user(args[0].(string))
		u.following = removeFromSet(u.following, args[1].(string))

	case stmtRemoveFromFollowers:
		u := f.user(args[0].(string))
		u.followers = removeFromSet(u.followers, args[1].(string))

	default:
		return nil, fmt.Errorf("fake shard: %s is not an exec", name)
	}

	return fakeResult(1), nil
}

var setvalVersion = regexp.MustCompile(`setval\(.*, (\d+)\)`)

func (f *fakeShard) ExecRaw(_ context.Context, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rawExecs = append(f.rawExecs, query)

	if match := setvalVersion.FindStringSubmatch(query); match != nil {
		version, err := strconv.Atoi(match[1])
		if err != nil {
			return err
		}
		f.schemaVersion = version
	}

	return nil
}

func (f *fakeShard) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

// check counts the call and returns the configured failure, if any. It requires f.mu to be held.
func (f *fakeShard) check(name string, args []any) error {
	f.calls[name]++

	if _, ok := f.prepared[name]; !ok {
		return timeline.ErrStatementNotPrepared
	}

	if err, ok := f.failing[name]; ok {
		return err
	}

	if len(args) > 0 {
		if err, ok := f.failingFor[name+"/"+fmt.Sprint(args[0])]; ok {
			return err
		}
	}

	return nil
}

func (f *fakeShard) rowsFor(rows []fakeRow, args []any) []fakeRow {
	owner := args[0].(string)
	slice := args[1].(time.Time)

	matching := make([]fakeRow, 0)
	for _, r := range rows {
		if r.owner == owner && r.slice.Equal(slice) {
			matching = append(matching, r)
		}
	}

	return matching
}

func (f *fakeShard) user(name string) *fakeUser {
	u, ok := f.users[name]
	if !ok {
		u = &fakeUser{}
		f.users[name] = u
	}

	return u
}

// failStatement makes every execution of the statement fail.
func (f *fakeShard) failStatement(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failing[name] = err
}

// failStatementFor makes executions of the statement fail when its first argument is the given user.
func (f *fakeShard) failStatementFor(name string, user string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failingFor[name+"/"+user] = err
}

// failSliceReadsBefore makes feed reads of slices older than the given slice fail.
func (f *fakeShard) failSliceReadsBefore(slice time.Time, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failSlicesBefore = slice
	f.failSliceErr = err
}

func (f *fakeShard) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[name]
}

func (f *fakeShard) snapshotUser(name string) fakeUser {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[name]
	if !ok {
		return fakeUser{}
	}

	return fakeUser{followers: slices.Clone(u.followers), following: slices.Clone(u.following)}
}

func (f *fakeShard) hasUser(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.users[name]

	return ok
}

func (f *fakeShard) ownFeedRows() []fakeRow {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.ownFeed)
}

func (f *fakeShard) timelineEntries() []fakeRow {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.timelineRows)
}

func (f *fakeShard) addTimelineRow(r fakeRow) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.timelineRows = append(f.timelineRows, r)
}

func (f *fakeShard) addOwnFeedRow(r fakeRow) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ownFeed = append(f.ownFeed, r)
}

func (f *fakeShard) setFollowers(user string, followers ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.user(user).followers = followers
}

func (f *fakeShard) rawExecsContaining(fragment string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, q := range f.rawExecs {
		if strings.Contains(q, fragment) {
			count++
		}
	}

	return count
}

func addToSet(set []string, value string) []string {
	if slices.Contains(set, value) {
		return set
	}

	return append(set, value)
}

func removeFromSet(set []string, value string) []string {
	return slices.DeleteFunc(set, func(v string) bool { return v == value })
}

type fakeRows struct {
	values [][]any
	pos    int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}

	r.pos++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.values[r.pos-1]
	if len(row) != len(dest) {
		return fmt.Errorf("fake rows: %d destinations for %d columns", len(dest), len(row))
	}

	for i, d := range dest {
		switch target := d.(type) {
		case *string:
			*target = row[i].(string)
		case *time.Time:
			*target = row[i].(time.Time)
		case *uuid.UUID:
			*target = row[i].(uuid.UUID)
		case *[]string:
			*target = row[i].([]string)
		case *int64:
			*target = row[i].(int64)
		default:
			return fmt.Errorf("fake rows: unsupported destination %T", d)
		}
	}

	return nil
}

func (r *fakeRows) Err() error {
	return nil
}

func (r *fakeRows) Close() error {
	return nil
}

type fakeResult int64

func (r fakeResult) RowsAffected() (int64, error) {
	return int64(r), nil
}

var _ adapters.DBAdapter = (*fakeShard)(nil)
