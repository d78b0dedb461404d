// SPDX-License-Identifier: MPL-2.0

// Package artifact defines the contract a managed artifact implements and the
// run-scoped accessor the engine drives it through.
//
// A Definition only has to describe where the artifact lives and what its
// content must contain. Everything else (reading, writing, opt-out detection,
// correctness and repair) has a default implemented by Handle, which a
// Definition may override by also implementing Locator, OptOutDecider,
// CorrectnessChecker or Repairer.
//
// Handles belong to a Session. A Session is created once per engine run and
// memoizes each artifact's expected and actual content for that run only.
// Values returned by a Handle are shared with the cache and must not be
// mutated; use structval.Clone or structval.MergeMissing to derive new ones.
package artifact
