package eventstream

import (
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultOrderField is the monotonic field every event table carries.
const DefaultOrderField = "created_at"

// Record is the schema-less unit stored in the event log.
//
// CreatedAt is the ordering field. Fields holds every other column or
// attribute the backend returned, keyed by name.
type Record struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Get returns a field value, or nil if absent.
func (r Record) Get(field string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[field]
}

// NewRecordID returns a time-sortable UUIDv7 for records appended without an ID.
func NewRecordID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Key is a key-bearing scope argument. Condition builders read the key of
// each positional argument to build a predicate.
type Key interface {
	ID() string
}

// StringKey is a Key whose identity is the string itself.
type StringKey string

// ID implements Key.
func (k StringKey) ID() string { return string(k) }

// Keys converts plain identifiers into scope arguments.
func Keys(ids ...string) []Key {
	keys := make([]Key, len(ids))
	for i, id := range ids {
		keys[i] = StringKey(id)
	}
	return keys
}

// Predicate maps field names to the value each must equal.
type Predicate map[string]any

// Fields returns the predicate's field names sorted for deterministic output.
func (p Predicate) Fields() []string {
	fields := make([]string, 0, len(p))
	for f := range p {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used as a table or field name.
// Backends interpolate identifiers into native queries, so anything outside
// this pattern is rejected.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
