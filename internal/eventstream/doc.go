// Package eventstream queries an append-only event log through secondary
// indexes and returns newest-first, bookmark-paginated collections.
//
// # Pieces
//
//   - Index: immutable definition of one named index (table, ordering
//     field, condition builder, entry builder)
//   - Strategy: an Index bound to one registered StrategyAdapter
//   - Bookmarker: per-kind derivation and validation of resume tokens
//   - Collection: page-able result of Strategy.QueryByScope
//
// # Usage
//
//	idx := eventstream.MustIndex("by_context", eventstream.IndexConfig{
//		Table:      "events",
//		Conditions: eventstream.FieldConditions("context_type", "context_id"),
//	})
//	s, err := idx.WithStrategy(eventstream.KindRelational)
//	col, err := s.QueryByScope(eventstream.Keys("Course", "42"), eventstream.PageOptions{})
//	err = col.Paginate(ctx, eventstream.PageOptions{PerPage: 20})
//	for col.HasMore() {
//		recs, err := col.NextPage(ctx)
//		...
//	}
//
// # Ordering and resumption
//
// Results are always ordered descending by the index ordering field
// (created_at unless configured otherwise). Resuming from the bookmark of
// record R yields only records strictly older than R. Relational and
// in-memory bookmarks are the bare timestamp, so records sharing a timestamp
// across a page boundary may be skipped. Concurrent appends during paging
// may also skip or duplicate records; this layer takes no locks.
package eventstream
