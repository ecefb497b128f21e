// Package yamlext maps YAML documents to and from script values with
// gopkg.in/yaml.v3. Mappings keep their document order.
package yamlext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

const maxDepth = 64

func Register(r *evaluator.Registry) error {
	r.RegisterFunc("yaml_parse", 1, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return parseArg(ctx, value.ToString(args[0]), args)
	})
	r.RegisterFunc("yaml_parse_file", 1, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		content, err := os.ReadFile(value.ToString(args[0]))
		if err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR003, "Cannot read file: %v", err)
		}
		return parseArg(ctx, string(content), args)
	})
	r.RegisterFunc("yaml_emit", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		out, err := Emit(args[0])
		if err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
		}
		return value.Str(out), nil
	})
	r.RegisterFunc("yaml_emit_file", 2, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		out, err := Emit(args[1])
		if err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
		}
		if err := os.WriteFile(value.ToString(args[0]), []byte(out), 0644); err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR003, "Cannot write file: %v", err)
		}
		return value.Bool(true), nil
	})
	return nil
}

// parseArg applies yaml_parse's $pos argument: a document index, or -1
// for an array of every document.
func parseArg(ctx *evaluator.CallContext, content string, args []value.Value) (value.Value, error) {
	pos := int64(0)
	if len(args) > 1 {
		pos = value.ToInt(args[1])
	}
	docs, err := Parse(content)
	if err != nil {
		return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
	}
	if pos == -1 {
		return value.NewList(docs...), nil
	}
	if pos < 0 || pos >= int64(len(docs)) {
		return nil, ctx.Errorf(diagnostics.ErrR003, "Document %d not found in stream of %d documents", pos, len(docs))
	}
	return docs[pos], nil
}

// Parse decodes every document in content. An empty stream yields a
// single null document.
func Parse(content string) ([]value.Value, error) {
	dec := yaml.NewDecoder(strings.NewReader(content))
	var docs []value.Value
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("YAML parse error: %v", err)
		}
		v, err := fromNode(&node, 0)
		if err != nil {
			return nil, err
		}
		docs = append(docs, v)
	}
	if len(docs) == 0 {
		docs = append(docs, value.Null{})
	}
	return docs, nil
}

func fromNode(n *yaml.Node, depth int) (value.Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("YAML nesting exceeds %d levels", maxDepth)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null{}, nil
		}
		return fromNode(n.Content[0], depth)
	case yaml.AliasNode:
		return fromNode(n.Alias, depth+1)
	case yaml.SequenceNode:
		list := value.NewArray()
		for _, item := range n.Content {
			v, err := fromNode(item, depth+1)
			if err != nil {
				return nil, err
			}
			list.Append(v)
		}
		return list, nil
	case yaml.MappingNode:
		m := value.NewArray()
		if err := fillMapping(m, n, depth); err != nil {
			return nil, err
		}
		return m, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return nil, fmt.Errorf("unsupported YAML node kind %d", n.Kind)
}

// fillMapping copies a mapping's pairs into m. "<<" merge keys add the
// entries of the merged mappings without overriding explicit keys.
func fillMapping(m *value.OrderedArray, n *yaml.Node, depth int) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if keyNode.ShortTag() == "!!merge" {
			merges = append(merges, valNode)
			continue
		}
		kv, err := fromNode(keyNode, depth+1)
		if err != nil {
			return err
		}
		key, err := value.KeyFromValue(kv)
		if err != nil {
			key = value.StrKey(value.ToString(kv))
		}
		v, err := fromNode(valNode, depth+1)
		if err != nil {
			return err
		}
		m.Put(key, v)
	}
	for _, merge := range merges {
		sources := []*yaml.Node{merge}
		if merge.Kind == yaml.SequenceNode {
			sources = merge.Content
		}
		for _, src := range sources {
			for src.Kind == yaml.AliasNode {
				src = src.Alias
			}
			if src.Kind != yaml.MappingNode {
				return fmt.Errorf("YAML merge key at line %d needs a mapping", merge.Line)
			}
			extra := value.NewArray()
			if err := fillMapping(extra, src, depth+1); err != nil {
				return err
			}
			for k, v := range extra.Iter() {
				if !m.ContainsKey(k) {
					m.Put(k, v)
				}
			}
		}
	}
	return nil
}

func fromScalar(n *yaml.Node) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return value.Int(i), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return value.Float(f), nil
	}
	return value.Str(n.Value), nil
}

// Emit renders v as a single YAML document framed by "---" and "...".
func Emit(v value.Value) (string, error) {
	node, err := toNode(v, 0)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString("---")
	if node.Kind == yaml.ScalarNode {
		buf.WriteByte(' ')
	} else {
		buf.WriteByte('\n')
	}
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("YAML encoding error: %v", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("YAML encoding error: %v", err)
	}
	buf.WriteString("...\n")
	return buf.String(), nil
}

func scalar(tag, val string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: val}
}

func toNode(v value.Value, depth int) (*yaml.Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("nesting exceeds %d levels", maxDepth)
	}
	switch x := value.OrNull(v).(type) {
	case value.Null:
		return scalar("!!null", "~"), nil
	case value.Bool:
		return scalar("!!bool", strconv.FormatBool(bool(x))), nil
	case value.Int:
		return scalar("!!int", strconv.FormatInt(int64(x), 10)), nil
	case value.Float:
		f := float64(x)
		switch {
		case math.IsNaN(f):
			return scalar("!!float", ".NAN"), nil
		case math.IsInf(f, 1):
			return scalar("!!float", ".INF"), nil
		case math.IsInf(f, -1):
			return scalar("!!float", "-.INF"), nil
		}
		s := value.FormatFloat(f, -1)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return scalar("!!float", s), nil
	case value.String:
		return scalar("!!str", x.Value), nil
	case *value.Object:
		return arrayNode(x.Props, depth)
	case value.Array:
		return arrayNode(x, depth)
	}
	return nil, fmt.Errorf("cannot emit a value of type %s", value.DebugType(v))
}

// arrayNode emits a list (keys 0..n-1 in order) as a sequence and
// anything else as a mapping.
func arrayNode(arr value.Array, depth int) (*yaml.Node, error) {
	isList := true
	next := int64(0)
	for k := range arr.KeyIter() {
		if !k.IsInt() || k.Int() != next {
			isList = false
			break
		}
		next++
	}

	if isList {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for v := range arr.ValueIter() {
			n, err := toNode(v, depth+1)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	}

	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for k, v := range arr.Iter() {
		var key *yaml.Node
		if k.IsInt() {
			key = scalar("!!int", k.String())
		} else {
			key = scalar("!!str", k.String())
		}
		n, err := toNode(v, depth+1)
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, key, n)
	}
	return m, nil
}
