package columnstore

import (
	"encoding/base64"
	"errors"

	"github.com/roach88/eventstream/internal/eventstream"
)

// bookmarkVersion prefixes every encoded clustering key.
const bookmarkVersion byte = 1

// ClusteringBookmarker issues bookmarks that encode the clustering key of a
// row (created_at nanos and record ID), the native resume position of the
// column store. Unlike timestamp bookmarks, rows sharing a timestamp are
// still strictly ordered by ID.
type ClusteringBookmarker struct{}

// BookmarkFor implements eventstream.Bookmarker.
func (ClusteringBookmarker) BookmarkFor(r eventstream.Record) eventstream.Bookmark {
	raw := append([]byte{bookmarkVersion}, clusteringKey(uint64(r.CreatedAt.UnixNano()), r.ID)...)
	return eventstream.Bookmark(base64.RawURLEncoding.EncodeToString(raw))
}

// Validate implements eventstream.Bookmarker.
func (b ClusteringBookmarker) Validate(bm eventstream.Bookmark) bool {
	_, err := b.clusteringKey(bm)
	return err == nil
}

// clusteringKey decodes bm back to the clustering key it encodes.
func (ClusteringBookmarker) clusteringKey(bm eventstream.Bookmark) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(string(bm))
	if err != nil {
		return nil, err
	}
	if len(raw) < 9 || raw[0] != bookmarkVersion {
		return nil, errors.New("not a clustering bookmark")
	}
	return raw[1:], nil
}
