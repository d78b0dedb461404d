// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tendkit/tend/internal/config"
	"github.com/tendkit/tend/internal/dag"
	"github.com/tendkit/tend/internal/discovery"
	"github.com/tendkit/tend/internal/initializer"
	"github.com/tendkit/tend/internal/issue"
	"github.com/tendkit/tend/internal/registry"
	"github.com/tendkit/tend/internal/testutil"
)

const acmeManifest = `
name: "acme"
description: "Demo component"
requires: ["tend"]
artifacts: [{
	name: "settings"
	file: "settings.json"
	content: {a: 1, nested: {b: true}}
}, {
	name: "ignore"
	file: ".gitignore"
	format: "lines"
	priority: 5
	content: ["/build", "*.tmp"]
}]
`

type fakeConfig struct {
	cfg *config.Config
	err error
}

func (f fakeConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg != nil {
		return f.cfg, nil
	}
	return config.DefaultConfig(), nil
}

type cliResult struct {
	stdout, stderr string
	err            error
}

func runCLI(t *testing.T, cfg ConfigProvider, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{Config: cfg, Stdout: &stdout, Stderr: &stderr})
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestInit_CreatesArtifacts(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "component.cue"), acmeManifest)

	res := runCLI(t, fakeConfig{}, "init", "--dir", project)
	if res.err != nil {
		t.Fatalf("init failed: %v\nstderr: %s", res.err, res.stderr)
	}
	if got := testutil.MustReadFile(t, filepath.Join(project, ".gitignore")); got != "/build\n*.tmp\n" {
		t.Errorf(".gitignore = %q", got)
	}
	if got := testutil.MustReadFile(t, filepath.Join(project, "settings.json")); !strings.Contains(got, `"nested"`) {
		t.Errorf("settings.json = %q", got)
	}
	for _, want := range []string{"Initialize", "acme:settings", "settings.json", "created"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}

	again := runCLI(t, fakeConfig{}, "check", "--dir", project)
	if exitCode(again.err) != 0 {
		t.Fatalf("check after init failed: %v\n%s%s", again.err, again.stdout, again.stderr)
	}
	if !strings.Contains(again.stdout, "unchanged") {
		t.Errorf("check output:\n%s", again.stdout)
	}
}

func TestCheck_FailsOnMissing(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "component.cue"), acmeManifest)

	res := runCLI(t, fakeConfig{}, "check", "--dir", project)
	if code := exitCode(res.err); code != 1 {
		t.Fatalf("exit code = %d (%v), want 1", code, res.err)
	}
	if !strings.Contains(res.stdout, "missing") {
		t.Errorf("stdout:\n%s", res.stdout)
	}
	if !strings.Contains(res.stderr, "Error:") {
		t.Errorf("stderr:\n%s", res.stderr)
	}
}

func TestInit_DryRunAndBootstrap(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "component.cue"), acmeManifest)

	res := runCLI(t, fakeConfig{}, "init", "--dir", project, "--dry-run")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.stdout, "planned") || !strings.Contains(res.stdout, "dry run") {
		t.Errorf("stdout:\n%s", res.stdout)
	}
	if fileExists(filepath.Join(project, "settings.json")) {
		t.Error("dry run wrote a file")
	}

	res = runCLI(t, fakeConfig{}, "init", "--dir", project, "--bootstrap")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !fileExists(filepath.Join(project, ".gitignore")) {
		t.Error("bootstrap must run positive priorities")
	}
	if fileExists(filepath.Join(project, "settings.json")) {
		t.Error("bootstrap must skip priority 0")
	}
}

func TestInit_InvalidManifest(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "component.cue"), `name: "acme", artifacts: [{name: "x"}]`)

	res := runCLI(t, fakeConfig{}, "init", "--dir", project, "--verbose")
	if exitCode(res.err) != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode(res.err))
	}
	if !strings.Contains(res.stderr, "load components") {
		t.Errorf("stderr:\n%s", res.stderr)
	}
	if !strings.Contains(res.stderr, "Component manifest is invalid") {
		t.Errorf("verbose failure must render the issue page:\n%s", res.stderr)
	}
}

func TestInit_ConfigError(t *testing.T) {
	t.Parallel()

	res := runCLI(t, fakeConfig{err: errors.New("boom")}, "init", "--dir", t.TempDir())
	if exitCode(res.err) != 1 || !strings.Contains(res.stderr, "boom") {
		t.Errorf("err = %v, stderr = %s", res.err, res.stderr)
	}
}

func TestInit_UnknownRoot(t *testing.T) {
	t.Parallel()

	res := runCLI(t, fakeConfig{}, "init", "--dir", t.TempDir(), "--root", "nope")
	if exitCode(res.err) != 1 || !strings.Contains(res.stderr, `"nope"`) {
		t.Errorf("err = %v, stderr = %s", res.err, res.stderr)
	}
}

func TestComponents(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(project, "component.cue"), acmeManifest)

	res := runCLI(t, fakeConfig{}, "components", "--dir", project)
	if res.err != nil {
		t.Fatal(res.err)
	}
	for _, want := range []string{"tend", "acme", "Demo component", "acme:settings", "tend:lock", ".tend/lock.json", "priority 5"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}

	res = runCLI(t, fakeConfig{}, "components", "--dir", project, "--module", "other")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.stdout, "(none)") {
		t.Errorf("a module path without variants must say so:\n%s", res.stdout)
	}
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.RootComponent = "acme"
	res := runCLI(t, fakeConfig{cfg: cfg}, "config", "dump")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.stdout, `root_component: "acme"`) {
		t.Errorf("dump:\n%s", res.stdout)
	}

	res = runCLI(t, fakeConfig{cfg: cfg}, "config", "show", "--dir", t.TempDir())
	if res.err != nil || !strings.Contains(res.stdout, "root_component") {
		t.Errorf("show: %v\n%s", res.err, res.stdout)
	}

	path := filepath.Join(t.TempDir(), "tend", "config.cue")
	res = runCLI(t, fakeConfig{}, "--config", path, "config", "init")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(testutil.MustReadFile(t, path), "module_path") {
		t.Error("config init did not write the default file")
	}
	res = runCLI(t, fakeConfig{}, "--config", path, "config", "init")
	if res.err != nil || !strings.Contains(res.stdout, "already exists") {
		t.Errorf("second init: %v\n%s", res.err, res.stdout)
	}

	res = runCLI(t, fakeConfig{}, "--config", path, "config", "path")
	if res.err != nil || !strings.Contains(res.stdout, "In use: "+path) {
		t.Errorf("path: %v\n%s", res.err, res.stdout)
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"manifest", &discovery.ManifestError{Dir: "x", Err: errors.New("bad")}, issue.ManifestParseFailedId},
		{"duplicate", &registry.DuplicateComponentError{Name: "a"}, issue.DuplicateComponentId},
		{"not found", &discovery.ComponentNotFoundError{Name: "a"}, issue.ComponentNotFoundId},
		{"unknown dependency", fmt.Errorf("wrap: %w", &registry.UnknownDependencyError{}), issue.UnknownDependencyId},
		{"cycle", &dag.CycleError{Cycle: []string{"a", "b"}}, issue.DependencyCycleId},
		{"ambiguous", &initializer.AmbiguityError{}, issue.AmbiguousArtifactsId},
		{"failed", fmt.Errorf("%w: 1 of 2", initializer.ErrArtifactsFailed), issue.ArtifactsFailedId},
		{"actionable", issue.NewErrorContext().WithOperation("x").WithIssue(issue.ConfigLoadFailedId).BuildError(), issue.ConfigLoadFailedId},
		{"other", errors.New("other"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: mutates package-level Version/Commit/BuildDate.
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-01-02T10:00:00Z"
	if got, want := getVersionString(), "v1.2.3 (commit: abc1234, built: 2026-01-02T10:00:00Z)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}
}
