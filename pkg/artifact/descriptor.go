// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tendkit/tend/pkg/format"
)

// ErrInvalidDescriptor is the sentinel error wrapped by InvalidDescriptorError.
var ErrInvalidDescriptor = errors.New("invalid artifact descriptor")

type (
	// Descriptor identifies one managed artifact: where it lives, how its
	// content is serialized and when it is initialized relative to others.
	Descriptor struct {
		// Dir is the directory relative to the project directory. Empty means ".".
		Dir string
		// File is the base file name.
		File string
		// Format selects the codec. Empty means inferred from File.
		Format format.Name
		// Priority orders initialization; higher runs earlier.
		Priority float64
	}

	// InvalidDescriptorError describes a Descriptor that cannot be resolved
	// safely inside the project directory.
	InvalidDescriptorError struct {
		Descriptor Descriptor
		Reason     string
	}
)

// Error implements the error interface.
func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("artifact %s: %s", e.Descriptor.RelPath(), e.Reason)
}

// Unwrap returns ErrInvalidDescriptor for errors.Is() compatibility.
func (e *InvalidDescriptorError) Unwrap() error { return ErrInvalidDescriptor }

// RelPath returns the artifact path relative to the project directory, using
// forward slashes.
func (d Descriptor) RelPath() string {
	return filepath.ToSlash(filepath.Join(d.dir(), d.File))
}

// Path resolves the artifact location under projectDir.
func (d Descriptor) Path(projectDir string) string {
	return filepath.Join(projectDir, d.dir(), d.File)
}

// ResolvedFormat returns Format, or the format inferred from File when
// Format is empty.
func (d Descriptor) ResolvedFormat() format.Name {
	if d.Format != "" {
		return d.Format
	}
	return format.FromFilename(d.File)
}

// Validate checks that the descriptor names a file inside the project
// directory and that its format is known.
func (d Descriptor) Validate() error {
	invalid := func(reason string) error {
		return &InvalidDescriptorError{Descriptor: d, Reason: reason}
	}

	switch {
	case strings.TrimSpace(d.File) == "":
		return invalid("file name is empty")
	case strings.ContainsAny(d.File, `/\`):
		return invalid("file name must not contain path separators")
	case filepath.IsAbs(d.Dir) || strings.HasPrefix(d.Dir, "/"):
		return invalid("directory must be relative to the project")
	}

	if rel := filepath.Clean(filepath.Join(d.dir(), d.File)); rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return invalid("path escapes the project directory")
	}
	if err := d.ResolvedFormat().Validate(); err != nil {
		return invalid(err.Error())
	}
	return nil
}

// Contains reports whether other's location lies under d's path, which
// happens when d names a directory-like path another artifact nests in.
func (d Descriptor) Contains(other Descriptor) bool {
	return strings.HasPrefix(other.RelPath(), d.RelPath()+"/")
}

func (d Descriptor) dir() string {
	if d.Dir == "" {
		return "."
	}
	return d.Dir
}
