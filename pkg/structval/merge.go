// SPDX-License-Identifier: MPL-2.0

package structval

import "slices"

// MergeMissing returns a copy of actual extended so that IsSubset(expected,
// result) holds, changing as little as possible. Neither argument is
// modified.
//
//   - Mapping keys missing from actual are appended with the expected value.
//   - Keys whose values are both mappings are merged recursively.
//   - Any other key whose actual value does not contain the expected value is
//     overwritten with the expected value.
//   - Expected sequence elements not matched anywhere in actual are inserted
//     at the index they hold in expected (clamped to the current length);
//     existing elements are never reordered.
//   - A top-level kind mismatch yields a copy of expected.
//
// MergeMissing is idempotent: merging its own result again changes nothing.
func MergeMissing(expected, actual Value) Value {
	return mergeInto(expected, Clone(actual))
}

// mergeInto merges expected into actual, which must be a private copy.
func mergeInto(expected, actual Value) Value {
	switch ev := expected.(type) {
	case *Map:
		if am, ok := actual.(*Map); ok && am != nil {
			mergeMapInto(ev, am)
			return am
		}
	case []any:
		if as, ok := actual.([]any); ok {
			return mergeSeq(ev, as)
		}
	}

	if IsSubset(expected, actual) {
		return actual
	}
	return Clone(expected)
}

func mergeMapInto(expected, actual *Map) {
	for _, e := range expected.Entries() {
		av, ok := actual.Get(e.Key)
		if !ok {
			actual.Set(e.Key, Clone(e.Value))
			continue
		}

		em, eIsMap := e.Value.(*Map)
		am, aIsMap := av.(*Map)
		if eIsMap && aIsMap && am != nil {
			mergeMapInto(em, am)
			continue
		}

		if !IsSubset(e.Value, av) {
			actual.Set(e.Key, Clone(e.Value))
		}
	}
}

func mergeSeq(expected, actual []any) []any {
	out := actual
	for i, item := range expected {
		if containsMatch(out, item) {
			continue
		}
		out = slices.Insert(out, min(i, len(out)), Clone(item))
	}
	return out
}
