package queryir

import (
	"fmt"
	"time"
)

// Value is a sealed interface for literal values in predicates.
// Only Text, Int and Bool implement it.
type Value interface {
	value()
}

// Text is a string value.
type Text string

func (Text) value() {}

// Int is an integer value. Timestamps are Int nanoseconds.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// ValueOf converts a Go value from a predicate map into a Value.
//
// Accepted: string, all integer kinds that fit int64, bool, time.Time
// (as Unix nanoseconds) and Value itself. Everything else, including nil
// and floats, is an error.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return Text(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > 1<<63-1 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case time.Time:
		return Int(val.UnixNano()), nil
	case nil:
		return nil, fmt.Errorf("nil is not a comparable value")
	case float32, float64:
		return nil, fmt.Errorf("floats are not comparable values: %v", val)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// Param converts a Value into a database/sql parameter.
func Param(v Value) (any, error) {
	switch val := v.(type) {
	case Text:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Bool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
