// SPDX-License-Identifier: MPL-2.0

package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tendkit/tend/pkg/structval"

	"github.com/tidwall/jsonc"
)

const jsonIndent = "  "

type (
	jsonCodec  struct{}
	jsoncCodec struct{}
)

// Decode parses JSON, keeping object key order.
func (jsonCodec) Decode(data []byte) (structval.Value, error) {
	v, err := decodeJSON(data)
	if err != nil {
		return nil, malformed(JSON, err)
	}
	return v, nil
}

// Encode writes indented JSON with a trailing newline.
func (jsonCodec) Encode(v structval.Value) ([]byte, error) {
	return encodeJSON(v)
}

// Decode strips comments and trailing commas before parsing as JSON.
func (jsoncCodec) Decode(data []byte) (structval.Value, error) {
	v, err := decodeJSON(jsonc.ToJSON(data))
	if err != nil {
		return nil, malformed(JSONC, err)
	}
	return v, nil
}

// Encode writes plain indented JSON, which is valid JSONC.
func (jsoncCodec) Encode(v structval.Value) ([]byte, error) {
	return encodeJSON(v)
}

func decodeJSON(data []byte) (structval.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (structval.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := &structval.Map{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			seq := []any{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", len(seq), err)
				}
				seq = append(seq, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case string, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func encodeJSON(v structval.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v structval.Value, depth int) error {
	switch t := v.(type) {
	case *structval.Map:
		if t.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i, e := range t.Entries() {
			writeIndent(buf, depth+1)
			writeJSONString(buf, e.Key)
			buf.WriteString(": ")
			if err := writeJSON(buf, e.Value, depth+1); err != nil {
				return fmt.Errorf("%s: %w", e.Key, err)
			}
			if i < t.Len()-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')
	case []any:
		if len(t) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range t {
			writeIndent(buf, depth+1)
			if err := writeJSON(buf, item, depth+1); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
			if i < len(t)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte(']')
	case string:
		writeJSONString(buf, t)
	case structval.DateTime:
		writeJSONString(buf, string(t))
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case nil:
		buf.WriteString("null")
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: JSON has no representation for %v", ErrUnencodable, t)
		}
		buf.WriteString(formatFloat(t))
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrUnencodable, v)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // Encoder appends a newline
}

func writeIndent(buf *bytes.Buffer, depth int) {
	buf.WriteString(strings.Repeat(jsonIndent, depth))
}

// formatFloat renders f so that it reads back as a float, never as an int.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
