// SPDX-License-Identifier: MPL-2.0

package structval

import (
	"fmt"
	"strconv"
	"strings"
)

// Mismatch describes one place where an actual value fails to contain the
// expected structure.
type Mismatch struct {
	// Path locates the mismatch, e.g. "tool.ruff.select" or "jobs[2]".
	Path string
	// Reason is a short human-readable description.
	Reason string
}

// String renders the mismatch as "path: reason".
func (m Mismatch) String() string {
	if m.Path == "" {
		return m.Reason
	}
	return m.Path + ": " + m.Reason
}

// IsSubset reports whether expected is structurally contained in actual.
//
// Scalars must be equal in kind and value. Every key of an expected mapping
// must exist in the actual mapping with a contained value; extra keys are
// ignored. Every element of an expected sequence must be contained in some
// element of the actual sequence, regardless of position. Values of different
// kinds are never subsets of each other.
func IsSubset(expected, actual Value) bool {
	ke, ka := KindOf(expected), KindOf(actual)
	if ke != ka || ke == KindInvalid {
		return false
	}

	switch ke {
	case KindMapping:
		em, am := expected.(*Map), actual.(*Map)
		for _, e := range em.Entries() {
			av, ok := am.Get(e.Key)
			if !ok || !IsSubset(e.Value, av) {
				return false
			}
		}
		return true
	case KindSequence:
		for _, item := range expected.([]any) {
			if !containsMatch(actual.([]any), item) {
				return false
			}
		}
		return true
	default:
		return scalarEqual(expected, actual)
	}
}

// containsMatch reports whether some element of items contains want.
func containsMatch(items []any, want Value) bool {
	for _, item := range items {
		if IsSubset(want, item) {
			return true
		}
	}
	return false
}

// Mismatches lists every location at which actual fails to contain expected.
// It returns nil exactly when IsSubset(expected, actual) is true.
func Mismatches(expected, actual Value) []Mismatch {
	var out []Mismatch
	collectMismatches(expected, actual, "", &out)
	return out
}

func collectMismatches(expected, actual Value, path string, out *[]Mismatch) {
	ke, ka := KindOf(expected), KindOf(actual)
	if ke != ka || ke == KindInvalid {
		*out = append(*out, Mismatch{
			Path:   path,
			Reason: fmt.Sprintf("expected %s, found %s", ke, ka),
		})
		return
	}

	switch ke {
	case KindMapping:
		em, am := expected.(*Map), actual.(*Map)
		for _, e := range em.Entries() {
			child := joinKey(path, e.Key)
			av, ok := am.Get(e.Key)
			if !ok {
				*out = append(*out, Mismatch{Path: child, Reason: "missing key"})
				continue
			}
			collectMismatches(e.Value, av, child, out)
		}
	case KindSequence:
		for i, item := range expected.([]any) {
			if !containsMatch(actual.([]any), item) {
				*out = append(*out, Mismatch{
					Path:   path + "[" + strconv.Itoa(i) + "]",
					Reason: "missing item " + Summary(item),
				})
			}
		}
	default:
		if !scalarEqual(expected, actual) {
			*out = append(*out, Mismatch{
				Path:   path,
				Reason: fmt.Sprintf("expected %s, found %s", Summary(expected), Summary(actual)),
			})
		}
	}
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// Summary renders a compact single-line description of v for diagnostics.
func Summary(v Value) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case DateTime:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, Summary(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		parts := make([]string, 0, t.Len())
		for _, e := range t.Entries() {
			parts = append(parts, strconv.Quote(e.Key)+": "+Summary(e.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("<%T>", v)
	}
}
