// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"runtime"
	"testing"
)

// MustSetenv sets key to value and returns a function that restores the
// previous value, or unsets key if it had none.
func MustSetenv(t testing.TB, key, value string) func() {
	t.Helper()
	orig, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	return func() {
		var err error
		if had {
			err = os.Setenv(key, orig)
		} else {
			err = os.Unsetenv(key)
		}
		if err != nil {
			t.Errorf("failed to restore env %s: %v", key, err)
		}
	}
}

// SetHomeDir points the platform's home directory variable at dir
// (USERPROFILE on Windows, HOME elsewhere).
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()
	if runtime.GOOS == "windows" {
		return MustSetenv(t, "USERPROFILE", dir)
	}
	return MustSetenv(t, "HOME", dir)
}

// SetConfigHome points XDG_CONFIG_HOME and the home directory at dir so that
// user-level configuration lookups stay inside the test.
func SetConfigHome(t testing.TB, dir string) func() {
	t.Helper()
	restoreHome := SetHomeDir(t, dir)
	restoreXDG := MustSetenv(t, "XDG_CONFIG_HOME", dir)
	return func() {
		restoreXDG()
		restoreHome()
	}
}
