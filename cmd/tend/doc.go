// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the tend CLI.
//
// The command tree is built around an App that wires configuration loading,
// component registration and the initialization engine; command handlers
// only parse flags and render results.
package cmd
