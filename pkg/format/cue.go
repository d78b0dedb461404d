// SPDX-License-Identifier: MPL-2.0

package format

import (
	"fmt"
	"math"
	"strconv"
	"unicode"

	"github.com/tendkit/tend/pkg/structval"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	cueformat "cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"
)

// cueKeywords cannot be used as bare field labels.
var cueKeywords = map[string]bool{
	"true": true, "false": true, "null": true,
	"if": true, "for": true, "in": true, "let": true,
	"import": true, "package": true,
	"div": true, "mod": true, "quo": true, "rem": true,
}

type cueCodec struct{}

// Decode evaluates CUE data. The result must be concrete; field order is that
// of the evaluated value.
func (cueCodec) Decode(data []byte) (structval.Value, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename("artifact.cue"))
	if v.Err() != nil {
		return nil, malformed(CUE, v.Err())
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, malformed(CUE, err)
	}
	out, err := FromCUEValue(v)
	if err != nil {
		return nil, malformed(CUE, err)
	}
	return out, nil
}

// Encode formats a Value as CUE. A top-level mapping is written as file-level
// fields without enclosing braces.
func (cueCodec) Encode(v structval.Value) ([]byte, error) {
	expr, err := toCUEExpr(v)
	if err != nil {
		return nil, err
	}

	var node ast.Node = expr
	if st, ok := expr.(*ast.StructLit); ok {
		node = &ast.File{Decls: st.Elts}
	}

	out, err := cueformat.Node(node, cueformat.Simplify())
	if err != nil {
		return nil, fmt.Errorf("format cue: %w", err)
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out, nil
}

// FromCUEValue converts a concrete CUE value into a structval Value, keeping
// struct field order. Definitions, hidden and optional fields are skipped.
func FromCUEValue(v cue.Value) (structval.Value, error) {
	switch v.Kind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		m := &structval.Map{}
		for iter.Next() {
			child, err := FromCUEValue(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", iter.Selector(), err)
			}
			m.Set(iter.Selector().Unquoted(), child)
		}
		return m, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		seq := []any{}
		for iter.Next() {
			child, err := FromCUEValue(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", len(seq), err)
			}
			seq = append(seq, child)
		}
		return seq, nil
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind:
		return v.Float64()
	case cue.StringKind:
		return v.String()
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("value of kind %s is not concrete data", v.IncompleteKind())
	}
}

func toCUEExpr(v structval.Value) (ast.Expr, error) {
	switch t := v.(type) {
	case *structval.Map:
		st := &ast.StructLit{}
		for _, e := range t.Entries() {
			child, err := toCUEExpr(e.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Key, err)
			}
			st.Elts = append(st.Elts, &ast.Field{Label: cueLabel(e.Key), Value: child})
		}
		return st, nil
	case []any:
		elems := make([]ast.Expr, 0, len(t))
		for i, item := range t {
			child, err := toCUEExpr(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			elems = append(elems, child)
		}
		return ast.NewList(elems...), nil
	case nil:
		return ast.NewNull(), nil
	case bool:
		return ast.NewBool(t), nil
	case string:
		return ast.NewString(t), nil
	case structval.DateTime:
		return ast.NewString(string(t)), nil
	case int64:
		return ast.NewLit(token.INT, strconv.FormatInt(t, 10)), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: CUE has no representation for %v", ErrUnencodable, t)
		}
		return ast.NewLit(token.FLOAT, formatFloat(t)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrUnencodable, v)
	}
}

// cueLabel returns a bare identifier label when key is a plain identifier and
// a quoted string label otherwise.
func cueLabel(key string) ast.Label {
	if isPlainIdent(key) && !cueKeywords[key] {
		return ast.NewIdent(key)
	}
	return ast.NewString(key)
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return true
}
