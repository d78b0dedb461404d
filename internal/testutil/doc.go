// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on error instead
// of returning it: file fixtures (MustWriteFile, MustReadFile, MustMkdirAll),
// working directory and environment changes (MustChdir, MustSetenv,
// SetHomeDir, SetConfigHome).
package testutil
