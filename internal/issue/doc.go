// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for the tend CLI.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. Known failure classes additionally have a Markdown
// issue page rendered to the terminal with glamour.
package issue
