// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles CUE documents against an embedded schema and
// decodes them into Go values.
//
// Component manifests and the tend configuration file both go through
// Parse:
//
//	res, err := cueutil.Parse[Manifest](schema, data, "#Manifest",
//	    cueutil.WithFilename(path))
//	if err != nil {
//	    return nil, err // includes the offending field path
//	}
//
// The unified cue.Value is returned alongside the decoded struct so callers
// can extract data whose field order matters.
package cueutil
