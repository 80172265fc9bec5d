// Package store provides SQLite-backed durable storage for event logs and
// the relational strategy adapter that queries them.
//
// # Tables
//
// Every event table shares one layout (schema.sql): an id primary key, the
// indexed attribute columns (stream, event_type, context_type, context_id,
// user_id, request_id), a canonical JSON payload for all other fields, and
// created_at as INTEGER Unix nanoseconds. Tables are append-only; records
// are never updated or deleted.
//
// # Ordering
//
// created_at is issued by a monotonic clock, so ORDER BY created_at DESC is
// the newest-first order of every index. Page queries add
// created_at < ? when resuming from a bookmark and fetch one extra row to
// decide whether more remain.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
