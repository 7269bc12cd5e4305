package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func parseYAML(data []byte) (*Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return NewMapping(), nil
	}
	return FromYAML(&root)
}

// FromYAML converts a decoded yaml.v3 node into a Node, keeping mapping
// key order and the tags of scalars and keys that are not plain strings.
// Aliases are resolved; merge keys (<<) are not expanded.
func FromYAML(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NewMapping(), nil
		}
		return FromYAML(y.Content[0])
	case yaml.AliasNode:
		if y.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias", y.Line)
		}
		return FromYAML(y.Alias)
	case yaml.MappingNode:
		m := NewMapping()
		for i := 0; i+1 < len(y.Content); i += 2 {
			k := y.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			child, err := FromYAML(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, child)
			if tag := k.ShortTag(); tag != "!!str" {
				if m.KeyTags == nil {
					m.KeyTags = map[string]string{}
				}
				m.KeyTags[k.Value] = tag
			}
		}
		return m, nil
	case yaml.SequenceNode:
		seq := NewSequence()
		for _, item := range y.Content {
			child, err := FromYAML(item)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, child)
		}
		return seq, nil
	case yaml.ScalarNode:
		return yamlScalar(y)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", y.Line, y.Kind)
	}
}

func yamlScalar(y *yaml.Node) (*Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return &Node{Kind: ScalarKind}, nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return &Node{Kind: ScalarKind, Value: b}, nil
	case "!!int":
		var i int64
		if err := y.Decode(&i); err == nil {
			return &Node{Kind: ScalarKind, Value: json.Number(strconv.FormatInt(i, 10))}, nil
		}
		var u uint64
		if err := y.Decode(&u); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return &Node{Kind: ScalarKind, Value: json.Number(strconv.FormatUint(u, 10))}, nil
	case "!!float":
		if json.Valid([]byte(y.Value)) {
			return &Node{Kind: ScalarKind, Value: json.Number(y.Value)}, nil
		}
		var f float64
		if err := y.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		n, err := NewScalar(f)
		if err != nil {
			// .inf and .nan have no JSON form; keep the literal text.
			return &Node{Kind: ScalarKind, Value: y.Value, Tag: "!!float"}, nil
		}
		return n, nil
	case "!!str":
		return String(y.Value), nil
	default:
		return &Node{Kind: ScalarKind, Value: y.Value, Tag: y.ShortTag()}, nil
	}
}

func marshalYAML(n *Node, indent string) ([]byte, error) {
	width := len(indent)
	if strings.Contains(indent, "\t") || width < 2 {
		width = 2
	}
	y, err := toYAML(n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(width)
	if err := enc.Encode(y); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toYAML(n *Node) (*yaml.Node, error) {
	if n == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	switch n.Kind {
	case MappingKind:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range n.Keys {
			v, err := toYAML(n.Fields[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			keyTag := "!!str"
			if tag, ok := n.KeyTags[k]; ok {
				keyTag = tag
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: keyTag, Value: k}, v)
		}
		return m, nil
	case SequenceKind:
		s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range n.Items {
			v, err := toYAML(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			s.Content = append(s.Content, v)
		}
		return s, nil
	default:
		switch v := n.Value.(type) {
		case nil:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		case bool:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}, nil
		case json.Number:
			tag := "!!float"
			if _, err := v.Int64(); err == nil {
				tag = "!!int"
			}
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}, nil
		case string:
			tag := "!!str"
			if n.Tag != "" {
				tag = n.Tag
			}
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}, nil
		default:
			return nil, fmt.Errorf("unsupported scalar type %T", v)
		}
	}
}
