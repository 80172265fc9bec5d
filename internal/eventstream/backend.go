package eventstream

import (
	"context"
	"fmt"
)

// Kind identifies a backend implementation.
type Kind int

const (
	KindUnknown Kind = iota
	KindRelational
	KindColumnStore
	KindMemory
)

var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindRelational:  "relational",
	KindColumnStore: "columnstore",
	KindMemory:      "memory",
}

// String returns the kind's canonical name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a canonical kind name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if k != KindUnknown && n == name {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown backend kind %q", name)
}

// QueryHandle is a backend-specific, not yet executed query.
// Handles are values: applying an order returns a new handle.
type QueryHandle interface {
	Target() string
}

// PageRequest asks a backend for at most Limit rows strictly after After.
// An empty After means "from the newest row".
type PageRequest struct {
	Limit int
	After Bookmark
}

// Page is one backend fetch. HasMore reports whether rows remain past the
// last returned row.
type Page struct {
	Rows    []Record
	HasMore bool
}

// Backend is the query surface the index layer consumes from a store.
type Backend interface {
	// ApplyPredicate scopes target to rows matching every predicate field.
	ApplyPredicate(target string, p Predicate) (QueryHandle, error)

	// OrderDescendingBy orders the handle newest first by field.
	OrderDescendingBy(h QueryHandle, field string) (QueryHandle, error)

	// FetchPage executes the handle. It issues exactly one blocking call to
	// the store and holds nothing open afterwards.
	FetchPage(ctx context.Context, h QueryHandle, req PageRequest) (Page, error)
}

// StrategyAdapter binds a Backend to its kind and bookmark semantics.
// There is one implementation per backend kind.
type StrategyAdapter interface {
	Backend
	Kind() Kind
	Bookmarker() Bookmarker
}
