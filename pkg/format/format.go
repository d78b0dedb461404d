// SPDX-License-Identifier: MPL-2.0

// Package format provides the serializers that turn artifact file contents
// into structval Values and back. Each content format is a Codec looked up by
// Name; the engine itself never depends on a particular format.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tendkit/tend/pkg/structval"
)

const (
	// JSON is plain JSON with key order preserved.
	JSON Name = "json"
	// JSONC is JSON with comments and trailing commas; comments are lost on write.
	JSONC Name = "jsonc"
	// YAML is YAML 1.2 with key order preserved.
	YAML Name = "yaml"
	// TOML is TOML v1.0; tables are written with sorted keys.
	TOML Name = "toml"
	// CUE is concrete CUE data with field order preserved.
	CUE Name = "cue"
	// Lines is newline-separated text such as an ignore file.
	Lines Name = "lines"
)

var (
	// ErrUnknownFormat is the sentinel error wrapped by UnknownFormatError.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrMalformed is the sentinel error wrapped by MalformedError.
	ErrMalformed = errors.New("malformed content")
	// ErrUnencodable is returned when a Value cannot be represented in a format.
	ErrUnencodable = errors.New("value cannot be encoded")

	codecs = map[Name]Codec{
		JSON:  jsonCodec{},
		JSONC: jsoncCodec{},
		YAML:  yamlCodec{},
		TOML:  tomlCodec{},
		CUE:   cueCodec{},
		Lines: linesCodec{},
	}

	extensions = map[string]Name{
		".json":  JSON,
		".jsonc": JSONC,
		".yaml":  YAML,
		".yml":   YAML,
		".toml":  TOML,
		".cue":   CUE,
	}
)

type (
	// Name identifies a content format.
	Name string

	// Codec converts between raw file bytes and structured values.
	// Decode must return normalized Values; Encode must accept any Value the
	// format can represent and produce output that decodes to an equal Value.
	Codec interface {
		Decode(data []byte) (structval.Value, error)
		Encode(v structval.Value) ([]byte, error)
	}

	// UnknownFormatError is returned when a format Name has no codec.
	UnknownFormatError struct {
		Value Name
	}

	// MalformedError is returned when content exists but cannot be parsed.
	// It wraps ErrMalformed for errors.Is() compatibility.
	MalformedError struct {
		Format Name
		Cause  error
	}
)

// Error implements the error interface.
func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown format %q (valid: %s)", e.Value, strings.Join(namesAsStrings(), ", "))
}

// Unwrap returns ErrUnknownFormat for errors.Is() compatibility.
func (e *UnknownFormatError) Unwrap() error { return ErrUnknownFormat }

// Error implements the error interface.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s content: %v", e.Format, e.Cause)
}

// Unwrap returns ErrMalformed for errors.Is() compatibility.
func (e *MalformedError) Unwrap() error { return ErrMalformed }

// String returns the format name.
func (n Name) String() string { return string(n) }

// Validate returns an error if no codec is registered for n.
func (n Name) Validate() error {
	if _, ok := codecs[n]; !ok {
		return &UnknownFormatError{Value: n}
	}
	return nil
}

// Lookup returns the codec for n.
func Lookup(n Name) (Codec, error) {
	c, ok := codecs[n]
	if !ok {
		return nil, &UnknownFormatError{Value: n}
	}
	return c, nil
}

// Names returns all known format names, sorted.
func Names() []Name {
	out := make([]Name, 0, len(codecs))
	for n := range codecs {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// FromFilename infers a format from a file extension. Files without a known
// extension (".gitignore", "CODEOWNERS") are treated as Lines.
func FromFilename(file string) Name {
	if n, ok := extensions[strings.ToLower(filepath.Ext(file))]; ok {
		return n
	}
	return Lines
}

func malformed(n Name, err error) error {
	return &MalformedError{Format: n, Cause: err}
}

func namesAsStrings() []string {
	names := Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
