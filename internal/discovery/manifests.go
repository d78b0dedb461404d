// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/tendkit/tend/internal/registry"
	"github.com/tendkit/tend/pkg/component"
)

// ErrInvalidManifest is the sentinel error wrapped by ManifestError.
var ErrInvalidManifest = errors.New("invalid component manifest")

// ManifestError reports a component manifest that failed to load.
type ManifestError struct {
	Dir string
	Err error
}

func (e *ManifestError) Error() string { return e.Err.Error() }

// Unwrap returns ErrInvalidManifest and the underlying error.
func (e *ManifestError) Unwrap() []error { return []error{ErrInvalidManifest, e.Err} }

// LoadManifests reads the component manifest of projectDir, if any, and of
// every search path and its immediate subdirectories. Relative search paths
// are resolved against projectDir. Directories are visited once even when
// listed twice.
func LoadManifests(projectDir string, searchPaths []string) ([]*component.Manifest, []Diagnostic, error) {
	var (
		manifests []*component.Manifest
		diags     []Diagnostic
		visited   = make(map[string]bool)
	)

	load := func(dir string) error {
		if visited[dir] {
			return nil
		}
		visited[dir] = true

		m, err := component.LoadDir(dir)
		if errors.Is(err, component.ErrNoManifest) {
			return nil
		}
		if err != nil {
			return &ManifestError{Dir: dir, Err: err}
		}
		manifests = append(manifests, m)
		return nil
	}

	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve project directory: %w", err)
	}
	if err := load(absProject); err != nil {
		return nil, nil, err
	}

	for _, sp := range searchPaths {
		dir := sp
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(absProject, dir)
		}
		dir = filepath.Clean(dir)

		entries, err := os.ReadDir(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			d := warnf(CodeSearchPathMissing, "", "search path %s does not exist", sp)
			d.Path, d.Cause = dir, err
			diags = append(diags, d)
			continue
		case err != nil:
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Code:     CodeSearchPathUnreadable,
				Message:  fmt.Sprintf("cannot read search path %s", sp),
				Path:     dir,
				Cause:    err,
			})
			continue
		}

		if err := load(dir); err != nil {
			return nil, nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if err := load(filepath.Join(dir, e.Name())); err != nil {
				return nil, nil, err
			}
		}
	}

	return manifests, diags, nil
}

// RegisterManifests adds every manifest to reg as a component whose
// artifacts are variants producing artifact.Static definitions.
func RegisterManifests(reg *registry.Registry, manifests []*component.Manifest) error {
	var errs []error
	for _, m := range manifests {
		variants := make([]registry.Variant, 0, len(m.Artifacts))
		for _, a := range m.Artifacts {
			variants = append(variants, registry.Variant{
				Name:     a.Name,
				Module:   a.Module,
				Replaces: slices.Clone(a.Replaces),
				New:      func() any { return a.Definition() },
			})
		}
		comp := registry.Component{
			Name:        m.Name,
			Description: m.Description,
			Requires:    m.Requires,
			Source:      m.Path,
		}
		if err := reg.Register(comp, variants...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
