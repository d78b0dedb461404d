// SPDX-License-Identifier: MPL-2.0

// Package component loads component manifests (component.cue). A manifest
// names a component, its direct dependencies and the artifacts it declares.
package component

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/tendkit/tend/pkg/artifact"
	"github.com/tendkit/tend/pkg/cueutil"
	"github.com/tendkit/tend/pkg/format"
	"github.com/tendkit/tend/pkg/structval"

	"cuelang.org/go/cue"
)

// ManifestFile is the file name LoadDir looks for.
const ManifestFile = "component.cue"

// ErrNoManifest is returned by LoadDir when the directory has no manifest.
var ErrNoManifest = errors.New("no component manifest")

//go:embed manifest_schema.cue
var manifestSchema []byte

type (
	// Manifest is a parsed component.cue.
	Manifest struct {
		Name        string
		Description string
		Requires    []string
		Artifacts   []Artifact
		// Path is the manifest file the component was loaded from.
		Path string
	}

	// Artifact is one artifact declared by a manifest.
	Artifact struct {
		Name     string
		Module   string
		Replaces []string
		artifact.Descriptor
		// Content is the expected structure, with field order as written.
		Content structval.Value
	}

	// decoded mirrors the schema for cue.Value.Decode. Content is extracted
	// separately so that field order survives.
	decoded struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Requires    []string          `json:"requires"`
		Artifacts   []decodedArtifact `json:"artifacts"`
	}

	decodedArtifact struct {
		Name     string   `json:"name"`
		Module   string   `json:"module"`
		Dir      string   `json:"dir"`
		File     string   `json:"file"`
		Format   string   `json:"format"`
		Priority float64  `json:"priority"`
		Replaces []string `json:"replaces"`
	}
)

// Parse decodes and validates manifest data. path is used for error messages
// and recorded as the manifest's Path.
func Parse(data []byte, path string) (*Manifest, error) {
	res, err := cueutil.Parse[decoded](manifestSchema, data, "#Manifest", cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}
	d := res.Value

	m := &Manifest{
		Name:        d.Name,
		Description: d.Description,
		Requires:    d.Requires,
		Path:        path,
	}

	seen := make(map[string]bool, len(d.Artifacts))
	for i, da := range d.Artifacts {
		if seen[da.Name] {
			return nil, fmt.Errorf("%s: artifacts[%d]: duplicate artifact name %q", path, i, da.Name)
		}
		seen[da.Name] = true

		content, err := format.FromCUEValue(res.Unified.LookupPath(cue.MakePath(
			cue.Str("artifacts"), cue.Index(i), cue.Str("content"),
		)))
		if err != nil {
			return nil, fmt.Errorf("%s: artifacts[%d].content: %w", path, i, err)
		}

		a := Artifact{
			Name:     da.Name,
			Module:   da.Module,
			Replaces: da.Replaces,
			Descriptor: artifact.Descriptor{
				Dir:      da.Dir,
				File:     da.File,
				Format:   format.Name(da.Format),
				Priority: da.Priority,
			},
			Content: content,
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%s: artifacts[%d]: %w", path, i, err)
		}
		m.Artifacts = append(m.Artifacts, a)
	}
	return m, nil
}

// LoadDir reads and parses dir/component.cue. It returns ErrNoManifest when
// the file does not exist.
func LoadDir(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoManifest)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data, path)
}

// Validate checks the descriptor and that a format is known and can hold
// the declared content.
func (a *Artifact) Validate() error {
	if err := a.Descriptor.Validate(); err != nil {
		return err
	}
	codec, err := format.Lookup(a.ResolvedFormat())
	if err != nil {
		return err
	}
	if _, err := codec.Encode(a.Content); err != nil {
		return fmt.Errorf("content cannot be written as %s: %w", a.ResolvedFormat(), err)
	}
	return nil
}

// Definition returns the artifact as a Definition whose expected content is
// the declared content.
func (a *Artifact) Definition() artifact.Definition {
	return &artifact.Static{Desc: a.Descriptor, Content: a.Content}
}

// DependsOn reports whether the manifest lists name as a direct dependency.
func (m *Manifest) DependsOn(name string) bool {
	return slices.Contains(m.Requires, name)
}
