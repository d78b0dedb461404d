// SPDX-License-Identifier: MPL-2.0

package format

import (
	"encoding"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/tendkit/tend/pkg/structval"

	"github.com/pelletier/go-toml/v2"
)

type tomlCodec struct{}

// Decode parses a TOML document. The decoder yields plain maps, so table keys
// come back sorted. Date and time values become structval.DateTime.
func (tomlCodec) Decode(data []byte) (structval.Value, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, malformed(TOML, fmt.Errorf("line %d, column %d: %w", row, col, err))
		}
		return nil, malformed(TOML, err)
	}

	v, err := fromTOML(raw)
	if err != nil {
		return nil, malformed(TOML, err)
	}
	return v, nil
}

// Encode writes a TOML document. The top-level value must be a mapping and
// TOML has no null, so nil values are rejected.
func (tomlCodec) Encode(v structval.Value) ([]byte, error) {
	if _, ok := v.(*structval.Map); !ok {
		return nil, fmt.Errorf("%w: TOML documents must be tables, got %s", ErrUnencodable, structval.KindOf(v))
	}
	raw, err := toTOML(v)
	if err != nil {
		return nil, err
	}
	out, err := toml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return out, nil
}

func fromTOML(v any) (structval.Value, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := slices.Sorted(maps.Keys(t))
		m := &structval.Map{}
		for _, k := range keys {
			child, err := fromTOML(t[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, child)
		}
		return m, nil
	case []any:
		seq := make([]any, len(t))
		for i, item := range t {
			child, err := fromTOML(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq[i] = child
		}
		return seq, nil
	case encoding.TextMarshaler:
		text, err := t.MarshalText()
		if err != nil {
			return nil, err
		}
		return structval.DateTime(text), nil
	default:
		return structval.Normalize(t)
	}
}

func toTOML(v structval.Value) (any, error) {
	switch t := v.(type) {
	case *structval.Map:
		out := make(map[string]any, t.Len())
		for _, e := range t.Entries() {
			child, err := toTOML(e.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Key, err)
			}
			out[e.Key] = child
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			child, err := toTOML(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = child
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("%w: TOML has no null value", ErrUnencodable)
	case bool, string, int64, float64:
		return t, nil
	case structval.DateTime:
		return tomlDateTime(string(t)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrUnencodable, v)
	}
}

// tomlDateTime maps date/time text onto the go-toml type that writes it back
// as a bare TOML literal: offset date-time, local date-time, local date or
// local time. Text matching none of them is written as a string.
func tomlDateTime(text string) any {
	if ts, err := time.Parse(time.RFC3339Nano, strings.Replace(text, " ", "T", 1)); err == nil {
		return ts
	}

	var target encoding.TextUnmarshaler
	switch {
	case len(text) == len("2006-01-02"):
		target = &toml.LocalDate{}
	case !strings.Contains(text, "-"):
		target = &toml.LocalTime{}
	default:
		target = &toml.LocalDateTime{}
	}
	if err := target.UnmarshalText([]byte(text)); err != nil {
		return text
	}

	switch d := target.(type) {
	case *toml.LocalDate:
		return *d
	case *toml.LocalTime:
		return *d
	case *toml.LocalDateTime:
		return *d
	}
	return text
}
