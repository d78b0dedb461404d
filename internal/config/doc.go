// SPDX-License-Identifier: MPL-2.0

// Package config loads tend's configuration using Viper with CUE as the file
// format.
//
// The file is looked up at the --config path, then
// $XDG_CONFIG_HOME/tend/config.cue (the platform config directory elsewhere),
// then .tend/config.cue in the project directory. It is validated against the
// embedded config_schema.cue and merged over the defaults. TEND_* environment
// variables override both, e.g. TEND_UI_VERBOSE=true.
package config
