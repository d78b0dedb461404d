// SPDX-License-Identifier: MPL-2.0

package structval

import (
	"fmt"
	"math"
	"sort"
)

const (
	// KindNull is the kind of the nil scalar.
	KindNull Kind = iota
	// KindBool is the kind of boolean scalars.
	KindBool
	// KindString is the kind of string scalars.
	KindString
	// KindInt is the kind of integer scalars (normalized to int64).
	KindInt
	// KindFloat is the kind of floating point scalars (normalized to float64).
	KindFloat
	// KindDateTime is the kind of DateTime scalars.
	KindDateTime
	// KindSequence is the kind of []any sequences.
	KindSequence
	// KindMapping is the kind of *Map mappings.
	KindMapping
	// KindInvalid is reported for Go values that are not a Value.
	KindInvalid
)

type (
	// Value is a structured value. See the package documentation for the set
	// of dynamic types it may hold.
	Value = any

	// Kind classifies a Value.
	Kind int

	// DateTime is a date, time or timestamp scalar kept as its literal text,
	// e.g. "1979-05-27T07:32:00Z" or "2001-12-14". Codecs with native date
	// types write it back as one; the others write it as a string.
	DateTime string

	// Map is an insertion-ordered mapping from string keys to Values.
	// The zero value is an empty map ready to use.
	Map struct {
		keys   []string
		values map[string]Value
	}

	// Entry is one key/value pair of a Map.
	Entry struct {
		Key   string
		Value Value
	}
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDateTime:
		return "datetime"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// KindOf reports the kind of v. It expects v to be normalized.
func KindOf(v Value) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case DateTime:
		return KindDateTime
	case []any:
		return KindSequence
	case *Map:
		return KindMapping
	default:
		return KindInvalid
	}
}

// NewMap builds a Map from entries, keeping their order. A repeated key keeps
// its first position and its last value.
func NewMap(entries ...Entry) *Map {
	m := &Map{}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil || m.values == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. New keys are appended; existing keys keep their
// position.
func (m *Map) Set(key string, value Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if m == nil || m.values == nil {
		return
	}
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Entries returns the key/value pairs in insertion order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Entry{Key: k, Value: m.values[k]})
	}
	return out
}

// SortKeys reorders the keys lexically. Codecs whose decoders lose key order
// use it to make output deterministic.
func (m *Map) SortKeys() {
	if m == nil {
		return
	}
	sort.Strings(m.keys)
}

// Seq builds a sequence Value from its arguments.
func Seq(items ...Value) []any {
	out := make([]any, len(items))
	copy(out, items)
	return out
}

// Normalize converts common Go representations into a Value: sized integer
// types become int64, float32 becomes float64, plain maps become *Map (keys
// sorted, since Go maps carry no order) and typed slices become []any.
// It returns an error for types that have no Value representation.
func Normalize(v any) (Value, error) {
	switch t := v.(type) {
	case nil, bool, string, int64, float64, DateTime:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return normalizeUint(uint64(t))
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return normalizeUint(t)
	case float32:
		return float64(t), nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := &Map{}
		for _, k := range keys {
			n, err := Normalize(t[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, n)
		}
		return m, nil
	case *Map:
		if t == nil {
			return &Map{}, nil
		}
		m := &Map{}
		for _, e := range t.Entries() {
			n, err := Normalize(e.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Key, err)
			}
			m.Set(e.Key, n)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// MustNormalize is Normalize for literals known to be valid. It panics on
// unsupported types.
func MustNormalize(v any) Value {
	n, err := Normalize(v)
	if err != nil {
		panic(err)
	}
	return n
}

func normalizeUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return float64(u), nil
	}
	return int64(u), nil
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	case *Map:
		if t == nil {
			return (*Map)(nil)
		}
		m := &Map{}
		for _, k := range t.keys {
			m.Set(k, Clone(t.values[k]))
		}
		return m
	default:
		return t
	}
}

// Equal reports structural equality. Mapping key order is ignored; sequence
// order is significant.
func Equal(a, b Value) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb || ka == KindInvalid {
		return false
	}
	switch ka {
	case KindSequence:
		sa, sb := a.([]any), b.([]any)
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !Equal(sa[i], sb[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		ma, mb := a.(*Map), b.(*Map)
		if ma.Len() != mb.Len() {
			return false
		}
		for _, k := range ma.Keys() {
			va, _ := ma.Get(k)
			vb, ok := mb.Get(k)
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	default:
		return scalarEqual(a, b)
	}
}

// scalarEqual compares two scalars of the same kind. NaN equals NaN so that
// every Value is equal to itself.
func scalarEqual(a, b Value) bool {
	if fa, ok := a.(float64); ok {
		fb := b.(float64)
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	}
	return a == b
}
