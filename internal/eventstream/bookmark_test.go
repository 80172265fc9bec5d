package eventstream_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventstream/internal/eventstream"
)

func TestTimestampBookmarker_UsesCreatedAt(t *testing.T) {
	bm := eventstream.TimestampBookmarker{}
	created := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	rec := eventstream.Record{ID: "r1", CreatedAt: created}

	b := bm.BookmarkFor(rec)
	assert.Equal(t, eventstream.Bookmark("2024-05-06T07:08:09.123456789Z"), b)
	assert.True(t, bm.Validate(b))

	got, err := bm.Time(b)
	require.NoError(t, err)
	assert.True(t, created.Equal(got))
}

func TestTimestampBookmarker_Deterministic(t *testing.T) {
	bm := eventstream.TimestampBookmarker{}
	rec := eventstream.Record{ID: "r1", CreatedAt: time.Now()}
	assert.Equal(t, bm.BookmarkFor(rec), bm.BookmarkFor(rec))
}

func TestTimestampBookmarker_NormalizesZone(t *testing.T) {
	bm := eventstream.TimestampBookmarker{}
	utc := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("UTC+2", 2*60*60))

	assert.Equal(t,
		bm.BookmarkFor(eventstream.Record{CreatedAt: utc}),
		bm.BookmarkFor(eventstream.Record{CreatedAt: local}))
}

func TestTimestampBookmarker_IgnoresID(t *testing.T) {
	bm := eventstream.TimestampBookmarker{}
	ts := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	assert.Equal(t,
		bm.BookmarkFor(eventstream.Record{ID: "a", CreatedAt: ts}),
		bm.BookmarkFor(eventstream.Record{ID: "b", CreatedAt: ts}))
}

func TestTimestampBookmarker_ValidateRejectsGarbage(t *testing.T) {
	bm := eventstream.TimestampBookmarker{}
	for _, b := range []eventstream.Bookmark{"", "garbage", "2024-13-01T00:00:00Z", "1714990000", "null"} {
		assert.NotPanics(t, func() {
			assert.False(t, bm.Validate(b), "bookmark %q", b)
		})
	}
}

func TestTimestampBookmarker_RejectsOutOfRange(t *testing.T) {
	bm := eventstream.TimestampBookmarker{}
	for _, b := range []eventstream.Bookmark{"2300-01-01T00:00:00Z", "1600-01-01T00:00:00Z", "9999-12-31T23:59:59Z"} {
		assert.False(t, bm.Validate(b), "bookmark %q", b)
		_, err := bm.Time(b)
		assert.Error(t, err, "bookmark %q", b)
	}

	for _, b := range []eventstream.Bookmark{"2262-04-11T23:47:16.854775807Z", "1677-09-21T00:12:43.145224192Z", "1970-01-01T00:00:00Z"} {
		assert.True(t, bm.Validate(b), "bookmark %q", b)
	}
}
