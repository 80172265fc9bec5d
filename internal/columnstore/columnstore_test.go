package columnstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventstream/internal/clock"
	"github.com/roach88/eventstream/internal/eventstream"
	"github.com/roach88/eventstream/internal/testutil"
)

var contextPartition = []string{"context_type", "context_id"}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig(), WithClock(clock.NewWithSource(testutil.NewStepClock().Now)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func contextStrategy(t *testing.T, s *Store) *eventstream.Strategy {
	t.Helper()
	reg := eventstream.NewRegistry()
	require.NoError(t, reg.Register(NewAdapter(s)))
	idx, err := eventstream.NewIndex("by_context", eventstream.IndexConfig{
		Table:      "events",
		Conditions: eventstream.FieldConditions("context_type", "context_id"),
		Registry:   reg,
	})
	require.NoError(t, err)
	strategy, err := idx.WithStrategy(eventstream.KindColumnStore)
	require.NoError(t, err)
	return strategy
}

func appendEvents(t *testing.T, s *Store, contextID string, n int) []string {
	t.Helper()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		rec, err := s.Append(context.Background(), "events", eventstream.Record{
			Fields: map[string]any{"context_type": "Course", "context_id": contextID, "n": int64(i)},
		}, contextPartition)
		require.NoError(t, err)
		out[n-1-i] = rec.ID
	}
	return out
}

func ids(recs []eventstream.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func readAll(t *testing.T, col *eventstream.Collection, perPage int) []string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, col.Paginate(ctx, eventstream.PageOptions{PerPage: perPage}))
	got := ids(col.Records())
	for col.HasMore() {
		recs, err := col.NextPage(ctx)
		require.NoError(t, err)
		got = append(got, ids(recs)...)
	}
	return got
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dir is required")
}

func TestConfigFunctions(t *testing.T) {
	cfg := DefaultConfig("/tmp/x")
	assert.Equal(t, "/tmp/x", cfg.Dir)
	assert.True(t, cfg.SyncWrites)
	assert.Equal(t, 5*time.Minute, cfg.GCInterval)

	mem := InMemoryConfig()
	assert.True(t, mem.InMemory)
	assert.Zero(t, mem.GCInterval)
}

func TestAdapter_PagesNewestFirstWithinPartition(t *testing.T) {
	s := openTestStore(t)
	want := appendEvents(t, s, "42", 23)
	appendEvents(t, s, "7", 4)

	col, err := contextStrategy(t, s).QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
	require.NoError(t, err)

	assert.Equal(t, want, readAll(t, col, 10))
	assert.Equal(t, eventstream.StateExhausted, col.State())
	assert.Equal(t, 3, col.Page())
}

func TestAdapter_RecordsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	appendEvents(t, s, "42", 1)

	col, err := contextStrategy(t, s).QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
	require.NoError(t, err)
	require.NoError(t, col.Paginate(context.Background(), eventstream.PageOptions{}))

	require.Len(t, col.Records(), 1)
	rec := col.Records()[0]
	assert.Equal(t, testutil.Epoch, rec.CreatedAt)
	assert.Equal(t, map[string]any{"context_type": "Course", "context_id": "42", "n": int64(0)}, rec.Fields)
}

func TestAdapter_TiedTimestampsAreNotSkipped(t *testing.T) {
	s := openTestStore(t)
	at := testutil.Epoch
	var want []string
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := s.Append(context.Background(), "events", eventstream.Record{
			ID:        id,
			CreatedAt: at,
			Fields:    map[string]any{"context_type": "Course", "context_id": "42"},
		}, contextPartition)
		require.NoError(t, err)
		want = append([]string{id}, want...)
	}

	col, err := contextStrategy(t, s).QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, want, readAll(t, col, 2))
}

func TestAdapter_ResumeFromBookmark(t *testing.T) {
	s := openTestStore(t)
	want := appendEvents(t, s, "42", 7)
	strategy := contextStrategy(t, s)
	ctx := context.Background()

	first, err := strategy.QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
	require.NoError(t, err)
	require.NoError(t, first.Paginate(ctx, eventstream.PageOptions{PerPage: 2}))

	later, err := strategy.QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
	require.NoError(t, err)
	require.NoError(t, later.Paginate(ctx, eventstream.PageOptions{PerPage: 2, Bookmark: first.Bookmark()}))
	assert.Equal(t, want[2:4], ids(later.Records()))
}

func TestAdapter_MultiplePartitions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec, err := s.Append(ctx, "events", eventstream.Record{
		Fields: map[string]any{"context_type": "Course", "context_id": "42", "user_id": "u1"},
	}, contextPartition, []string{"user_id"})
	require.NoError(t, err)

	reg := eventstream.NewRegistry()
	require.NoError(t, reg.Register(NewAdapter(s)))
	idx, err := eventstream.NewIndex("by_user", eventstream.IndexConfig{
		Table:      "events",
		Conditions: eventstream.FieldConditions("user_id"),
		Registry:   reg,
	})
	require.NoError(t, err)
	strategy, err := idx.WithStrategy(eventstream.KindColumnStore)
	require.NoError(t, err)

	col, err := strategy.QueryByScope(eventstream.Keys("u1"), eventstream.PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, readAll(t, col, 10))

	byContext, err := contextStrategy(t, s).QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, readAll(t, byContext, 10))
}

func TestAdapter_EmptyPartition(t *testing.T) {
	s := openTestStore(t)

	col, err := contextStrategy(t, s).QueryByScope(eventstream.Keys("Course", "none"), eventstream.PageOptions{})
	require.NoError(t, err)
	require.NoError(t, col.Paginate(context.Background(), eventstream.PageOptions{}))
	assert.NotNil(t, col.Records())
	assert.Empty(t, col.Records())
	assert.False(t, col.HasMore())
}

func TestAdapter_RejectsOtherOrderField(t *testing.T) {
	a := NewAdapter(openTestStore(t))
	h, err := a.ApplyPredicate("events", eventstream.Predicate{"user_id": "u1"})
	require.NoError(t, err)

	_, err = a.OrderDescendingBy(h, "event_type")
	assert.True(t, eventstream.IsArgumentError(err))
}

func TestAdapter_UnorderedHandle(t *testing.T) {
	a := NewAdapter(openTestStore(t))
	h, err := a.ApplyPredicate("events", eventstream.Predicate{"user_id": "u1"})
	require.NoError(t, err)

	_, err = a.FetchPage(context.Background(), h, eventstream.PageRequest{Limit: 1})
	assert.True(t, eventstream.IsInvariantViolation(err))
}

func TestAdapter_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	appendEvents(t, s, "42", 2)
	col, err := contextStrategy(t, s).QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = col.Paginate(ctx, eventstream.PageOptions{})
	require.Error(t, err)
	assert.True(t, eventstream.IsBackendUnavailable(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAppend_Errors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, "bad table", eventstream.Record{})
	assert.True(t, eventstream.IsArgumentError(err))

	_, err = s.Append(ctx, "events", eventstream.Record{Fields: map[string]any{"a": "x"}}, []string{"missing"})
	assert.True(t, eventstream.IsArgumentError(err))

	_, err = s.Append(ctx, "events", eventstream.Record{Fields: map[string]any{"ratio": 0.25}})
	assert.True(t, eventstream.IsArgumentError(err))

	_, err = s.Append(ctx, "events", eventstream.Record{CreatedAt: time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)})
	assert.True(t, eventstream.IsArgumentError(err))
}

func TestAppend_DuplicateIDKeepsFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, v := range []string{"first", "second"} {
		_, err := s.Append(ctx, "events", eventstream.Record{
			ID:     "dup",
			Fields: map[string]any{"context_type": "Course", "context_id": "42", "v": v},
		}, contextPartition)
		require.NoError(t, err)
	}

	col, err := contextStrategy(t, s).QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
	require.NoError(t, err)
	require.NoError(t, col.Paginate(ctx, eventstream.PageOptions{}))
	require.Len(t, col.Records(), 1)
	assert.Equal(t, "first", col.Records()[0].Fields["v"])
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cs")
	cfg := DefaultConfig(dir)
	cfg.SyncWrites = false
	cfg.GCInterval = 0

	s1, err := Open(cfg)
	require.NoError(t, err)
	rec, err := s1.Append(context.Background(), "events", eventstream.Record{
		Fields: map[string]any{"user_id": "u1"},
	}, []string{"user_id"})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(cfg)
	require.NoError(t, err)
	defer s2.Close()

	a := NewAdapter(s2)
	h, err := a.ApplyPredicate("events", eventstream.Predicate{"user_id": "u1"})
	require.NoError(t, err)
	h, err = a.OrderDescendingBy(h, "created_at")
	require.NoError(t, err)
	page, err := a.FetchPage(context.Background(), h, eventstream.PageRequest{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, ids(page.Rows))
}

func TestClusteringBookmarker(t *testing.T) {
	b := ClusteringBookmarker{}
	rec := eventstream.Record{ID: "r1", CreatedAt: testutil.Epoch}

	bm := b.BookmarkFor(rec)
	assert.Equal(t, bm, b.BookmarkFor(rec), "deterministic")
	assert.True(t, b.Validate(bm))

	for _, bad := range []eventstream.Bookmark{"", "garbage", "!!!", "2024-01-01T00:00:00Z"} {
		assert.False(t, b.Validate(bad), "bookmark %q", bad)
	}

	ck, err := b.clusteringKey(bm)
	require.NoError(t, err)
	nanos, id, err := splitClustering(ck)
	require.NoError(t, err)
	assert.Equal(t, uint64(testutil.Epoch.UnixNano()), nanos)
	assert.Equal(t, "r1", id)
}

func TestKeysSortByTimestamp(t *testing.T) {
	part := []byte(`{"user_id":"u1"}`)
	older := keyEntry("events", part, 100, "z")
	newer := keyEntry("events", part, 200, "a")
	assert.Less(t, string(older), string(newer))
	assert.Less(t, string(newer), string(append(keyPartitionPrefix("events", part), seekTail...)))
}
