// SPDX-License-Identifier: MPL-2.0

package format

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tendkit/tend/pkg/structval"

	"gopkg.in/yaml.v3"
)

const (
	yamlIndent = 2

	yamlTagNull  = "!!null"
	yamlTagBool  = "!!bool"
	yamlTagInt   = "!!int"
	yamlTagFloat = "!!float"
	yamlTagStr   = "!!str"
	yamlTagTime  = "!!timestamp"

	// maxAliasDepth bounds alias expansion so that self-referencing documents
	// cannot recurse forever.
	maxAliasDepth = 64
	// Alias expansion may visit at most yamlExpansionRatio nodes per node in
	// the source document, plus yamlExpansionFloor.
	yamlExpansionRatio = 10
	yamlExpansionFloor = 10_000
)

type yamlDecoder struct {
	budget  int
	visited int
}

type yamlCodec struct{}

// Decode parses a single YAML document through the node tree so that
// mapping key order survives.
func (yamlCodec) Decode(data []byte) (structval.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed(YAML, err)
	}
	if doc.Kind == 0 {
		// Empty document.
		return nil, nil
	}
	d := &yamlDecoder{budget: countYAMLNodes(&doc)*yamlExpansionRatio + yamlExpansionFloor}
	v, err := d.node(&doc, 0)
	if err != nil {
		return nil, malformed(YAML, err)
	}
	return v, nil
}

// Encode writes a YAML document with two-space indentation.
func (yamlCodec) Encode(v structval.Value) ([]byte, error) {
	node, err := toYAMLNode(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// countYAMLNodes counts the nodes of the parsed tree without following aliases.
func countYAMLNodes(n *yaml.Node) int {
	total := 1
	for _, c := range n.Content {
		total += countYAMLNodes(c)
	}
	return total
}

func (d *yamlDecoder) node(n *yaml.Node, depth int) (structval.Value, error) {
	if depth > maxAliasDepth {
		return nil, errors.New("document nested too deeply")
	}
	d.visited++
	if d.visited > d.budget {
		return nil, fmt.Errorf("alias expansion exceeds %d nodes", d.budget)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.node(n.Content[0], depth+1)
	case yaml.MappingNode:
		m := &structval.Map{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			val, err := d.node(valNode, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", keyNode.Value, err)
			}
			m.Set(keyNode.Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			val, err := d.node(item, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq = append(seq, val)
		}
		return seq, nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias", n.Line)
		}
		return d.node(n.Alias, depth+1)
	case yaml.ScalarNode:
		if n.ShortTag() == yamlTagTime {
			return structval.DateTime(n.Value), nil
		}
		var raw any
		if err := n.Decode(&raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		v, err := structval.Normalize(raw)
		if err != nil {
			// Binary scalars keep their literal text.
			return n.Value, nil //nolint:nilerr // fall back to the textual form
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func toYAMLNode(v structval.Value) (*yaml.Node, error) {
	switch t := v.(type) {
	case *structval.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range t.Entries() {
			child, err := toYAMLNode(e.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Key, err)
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagStr, Value: e.Key},
				child,
			)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range t {
			child, err := toYAMLNode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagNull, Value: "null"}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagBool, Value: strconv.FormatBool(t)}, nil
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagInt, Value: strconv.FormatInt(t, 10)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagFloat, Value: yamlFloat(t)}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagStr, Value: t}, nil
	case structval.DateTime:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagTime, Value: string(t)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrUnencodable, v)
	}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return formatFloat(f)
	}
}
