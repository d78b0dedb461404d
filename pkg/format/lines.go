// SPDX-License-Identifier: MPL-2.0

package format

import (
	"fmt"
	"strings"

	"github.com/tendkit/tend/pkg/structval"
)

type linesCodec struct{}

// Decode splits text into a sequence of non-blank lines. Line endings may be
// LF or CRLF; surrounding whitespace of each line is kept except the CR.
func (linesCodec) Decode(data []byte) (structval.Value, error) {
	seq := []any{}
	for line := range strings.Lines(string(data)) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		seq = append(seq, line)
	}
	return seq, nil
}

// Encode writes one string per line. Only sequences of strings are accepted.
func (linesCodec) Encode(v structval.Value) ([]byte, error) {
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: lines content must be a sequence, got %s", ErrUnencodable, structval.KindOf(v))
	}

	var sb strings.Builder
	for i, item := range seq {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: [%d]: lines content must be strings, got %s", ErrUnencodable, i, structval.KindOf(item))
		}
		if strings.ContainsAny(s, "\r\n") {
			return nil, fmt.Errorf("%w: [%d]: line contains a line break", ErrUnencodable, i)
		}
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}
