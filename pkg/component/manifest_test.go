// SPDX-License-Identifier: MPL-2.0

package component

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/tendkit/tend/internal/testutil"
	"github.com/tendkit/tend/pkg/format"
	"github.com/tendkit/tend/pkg/structval"
)

const pythonManifest = `
name:        "acme.python"
description: "Python project layout"
requires: ["tend", "acme.base"]
artifacts: [{
	name:     "pyproject"
	file:     "pyproject.toml"
	priority: 10
	replaces: ["acme.base:pyproject"]
	content: {
		project: {
			zeta:  1
			alpha: "demo"
		}
	}
}, {
	name:   "gitignore"
	file:   ".gitignore"
	module: "artifacts/vcs"
	content: ["__pycache__/", "*.pyc"]
}, {
	name:   "ci"
	dir:    ".github/workflows"
	file:   "ci"
	format: "yaml"
	content: {on: ["push"]}
}]
`

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(pythonManifest), "component.cue")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Name != "acme.python" || m.Description != "Python project layout" {
		t.Errorf("unexpected header: %+v", m)
	}
	if !slices.Equal(m.Requires, []string{"tend", "acme.base"}) || !m.DependsOn("acme.base") {
		t.Errorf("Requires = %v", m.Requires)
	}
	if len(m.Artifacts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(m.Artifacts))
	}

	py := m.Artifacts[0]
	if py.Module != "artifacts" || py.Dir != "." || py.Priority != 10 {
		t.Errorf("pyproject defaults not applied: %+v", py)
	}
	if py.ResolvedFormat() != format.TOML {
		t.Errorf("pyproject format = %s, want toml", py.ResolvedFormat())
	}
	if !slices.Equal(py.Replaces, []string{"acme.base:pyproject"}) {
		t.Errorf("Replaces = %v", py.Replaces)
	}
	project, _ := py.Content.(*structval.Map).Get("project")
	if keys := project.(*structval.Map).Keys(); !slices.Equal(keys, []string{"zeta", "alpha"}) {
		t.Errorf("content field order = %v, want [zeta alpha]", keys)
	}

	ignore := m.Artifacts[1]
	if ignore.Module != "artifacts/vcs" || ignore.ResolvedFormat() != format.Lines {
		t.Errorf("gitignore = %+v", ignore)
	}
	if !structval.Equal(ignore.Content, structval.Seq("__pycache__/", "*.pyc")) {
		t.Errorf("gitignore content = %s", structval.Summary(ignore.Content))
	}

	ci := m.Artifacts[2]
	if ci.RelPath() != ".github/workflows/ci" || ci.ResolvedFormat() != format.YAML {
		t.Errorf("ci = %+v", ci)
	}
	def := ci.Definition()
	if def.Descriptor() != ci.Descriptor {
		t.Error("Definition must carry the artifact descriptor")
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{name: "missing name", data: `requires: []`, wantMsg: "name"},
		{name: "bad component name", data: `name: "9lives"`, wantMsg: "name"},
		{name: "unknown field", data: `name: "a", extra: 1`, wantMsg: "extra"},
		{name: "unknown format", data: `name: "a", artifacts: [{name: "x", file: "x", format: "ini", content: {}}]`, wantMsg: "format"},
		{name: "missing content", data: `name: "a", artifacts: [{name: "x", file: "x.json"}]`, wantMsg: "content"},
		{name: "non-concrete content", data: `name: "a", artifacts: [{name: "x", file: "x.json", content: {a: int}}]`, wantMsg: "content"},
		{name: "escaping path", data: `name: "a", artifacts: [{name: "x", dir: "../..", file: "x.json", content: {}}]`, wantMsg: "escapes"},
		{name: "absolute path", data: `name: "a", artifacts: [{name: "x", dir: "/etc", file: "x.json", content: {}}]`, wantMsg: "relative"},
		{name: "duplicate artifact", data: `name: "a", artifacts: [{name: "x", file: "x.json", content: {}}, {name: "x", file: "y.json", content: {}}]`, wantMsg: "duplicate"},
		{name: "content not writable as format", data: `name: "a", artifacts: [{name: "x", file: ".ignore", content: {a: 1}}]`, wantMsg: "cannot be written"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data), "component.cue")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
			if !strings.Contains(err.Error(), "component.cue") {
				t.Errorf("error %q should name the manifest", err)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := LoadDir(dir); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("LoadDir(empty) error = %v, want ErrNoManifest", err)
	}

	path := filepath.Join(dir, ManifestFile)
	testutil.MustWriteFile(t, path, `name: "acme.base"`)
	m, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if m.Name != "acme.base" || m.Path != path || len(m.Artifacts) != 0 {
		t.Errorf("LoadDir = %+v", m)
	}
}
