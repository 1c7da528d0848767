// Package value provides the dynamic value model used throughout the
// execution engine: a tagged sum type plus the value-item cells that
// carry literals, identifier references and transform functions.
package value

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindMap
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a dynamic value: null, bool, int, float, string, array or map.
// Values are deep-copyable; Copy must be used before sharing a value
// across goroutines.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an int64.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float64.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a slice of values. The slice is owned by the Value.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Map wraps a map of values. The map is owned by the Value.
func Map(entries map[string]Value) Value {
	if entries == nil {
		entries = map[string]Value{}
	}
	return Value{kind: KindMap, m: entries}
}

// FromAny converts a decoded YAML/JSON value into a Value.
// Unknown types are stringified.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = FromAny(e)
		}
		return Array(arr...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromAny(e)
		}
		return Map(m)
	default:
		return String(fmt.Sprintf("%v", v))
	}
}

// ToAny converts a Value back into plain Go types (for JSON encoding
// and diagnostics).
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the bool payload. Valid only for KindBool.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload, converting from float when needed.
func (v Value) Int() int64 {
	if v.kind == KindFloat {
		return int64(v.f)
	}
	return v.i
}

// Float returns the float payload, converting from int when needed.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Str returns the string payload. Valid only for KindString.
func (v Value) Str() string { return v.s }

// Items returns the array payload. Valid only for KindArray.
func (v Value) Items() []Value { return v.arr }

// Entries returns the map payload. Valid only for KindMap.
func (v Value) Entries() map[string]Value { return v.m }

// Len returns the element count for arrays and maps and the byte
// length for strings; 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.m)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// At returns the array element at index i.
func (v Value) At(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Null(), false
	}
	return v.arr[i], true
}

// Entry returns the map entry for key k.
func (v Value) Entry(k string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	e, ok := v.m[k]
	return e, ok
}

// Copy returns a deep copy of the value.
func (v Value) Copy() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.Copy()
		}
		return Value{kind: KindArray, arr: arr}
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			m[k] = e.Copy()
		}
		return Value{kind: KindMap, m: m}
	default:
		return v
	}
}

// String renders the value for template output and comparisons.
// Arrays and maps are JSON-encoded so output stays machine-readable
// instead of Go's %v formatting.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindArray, KindMap:
		if b, err := json.Marshal(v.ToAny()); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v.ToAny())
	default:
		return ""
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			oe, ok := o.m[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
