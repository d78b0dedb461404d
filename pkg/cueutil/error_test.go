// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "component.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("plain error is wrapped with file", func(t *testing.T) {
		t.Parallel()

		orig := errors.New("boom")
		err := FormatError(orig, "component.cue")
		if !errors.Is(err, orig) {
			t.Errorf("expected wrapped error, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "component.cue: ") {
			t.Errorf("error should start with file name, got %q", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{"empty", nil, ""},
		{"single", []string{"name"}, "name"},
		{"nested", []string{"ui", "verbose"}, "ui.verbose"},
		{"index", []string{"artifacts", "0", "file"}, "artifacts[0].file"},
		{"consecutive indices", []string{"m", "1", "2"}, "m[1][2]"},
		{"leading number is not an index", []string{"0", "a"}, "0.a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "a.cue"); err != nil {
		t.Errorf("size at limit should pass, got %v", err)
	}
	err := CheckFileSize(make([]byte, 11), 10, "a.cue")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size error, got %v", err)
	}
}
