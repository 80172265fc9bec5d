package eventstream

import (
	"fmt"
	"math"
	"time"
)

// Bookmark is an opaque token meaning "resume after this position".
// Its encoding belongs to the Bookmarker of the backend kind that issued it.
type Bookmark string

// Bookmarker derives bookmarks from records and checks token shape.
//
// BookmarkFor must be deterministic. Validate must never panic or mutate
// state; it only answers whether the token is well formed for its kind.
type Bookmarker interface {
	BookmarkFor(r Record) Bookmark
	Validate(b Bookmark) bool
}

// TimestampBookmarker bookmarks a record by its CreatedAt alone.
//
// Records sharing an identical timestamp have no tie-break: resuming after
// one of them skips the others.
type TimestampBookmarker struct{}

// BookmarkFor formats the record's CreatedAt as RFC 3339 with nanoseconds in UTC.
func (TimestampBookmarker) BookmarkFor(r Record) Bookmark {
	return Bookmark(r.CreatedAt.UTC().Format(time.RFC3339Nano))
}

// Timestamps a bookmark may carry: the range of Unix nanoseconds in an int64,
// which is how every backend compares created_at.
var (
	minBookmarkTime = time.Unix(0, math.MinInt64).UTC()
	maxBookmarkTime = time.Unix(0, math.MaxInt64).UTC()
)

// Validate reports whether b is an RFC 3339 timestamp within the range of
// int64 Unix nanoseconds.
func (tb TimestampBookmarker) Validate(b Bookmark) bool {
	_, err := tb.Time(b)
	return err == nil
}

// Time returns the timestamp encoded in b.
func (TimestampBookmarker) Time(b Bookmark) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, string(b))
	if err != nil {
		return time.Time{}, err
	}
	if t.Before(minBookmarkTime) || t.After(maxBookmarkTime) {
		return time.Time{}, fmt.Errorf("timestamp %s outside int64 nanosecond range", b)
	}
	return t.UTC(), nil
}
