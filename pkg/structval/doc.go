// SPDX-License-Identifier: MPL-2.0

// Package structval defines the format-neutral structured value that every
// managed artifact presents its content as, together with the two pure
// algorithms the engine is built on:
//
//   - IsSubset: does the actual value already contain the expected structure?
//   - MergeMissing: produce a repaired copy of the actual value that does.
//
// A Value is one of:
//   - a scalar: nil, bool, string, int64, float64 or DateTime
//   - a sequence: []any whose elements are Values
//   - a mapping: *Map, an insertion-ordered string-keyed map of Values
//
// Values handed out by caches are shared. Nothing in this package mutates its
// arguments; transformations always return fresh copies.
package structval
