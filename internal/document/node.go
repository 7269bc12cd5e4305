package document

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mitchellh/copystructure"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	ScalarKind Kind = iota
	MappingKind
	SequenceKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is one element of a settings tree.
//
// Only the fields matching Kind are meaningful. Scalar values are nil, bool,
// string or json.Number; numbers keep their literal text.
//
// Tag and KeyTags only matter for YAML. Tag is the source tag of a scalar
// held as a string but not typed as one (!!timestamp, !!binary, a custom
// !tag). KeyTags records mapping keys that were not plain strings, such as
// an integer key 1.
type Node struct {
	Kind    Kind
	Keys    []string
	Fields  map[string]*Node
	Items   []*Node
	Value   any
	Tag     string
	KeyTags map[string]string
}

// NewMapping returns an empty mapping node.
func NewMapping() *Node {
	return &Node{Kind: MappingKind, Fields: map[string]*Node{}}
}

// NewSequence returns a sequence node holding items.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: SequenceKind, Items: items}
}

// NewScalar returns a scalar node. v must be nil, bool, string, a Go number
// or json.Number.
func NewScalar(v any) (*Node, error) {
	switch x := v.(type) {
	case nil, bool, string, json.Number:
		return &Node{Kind: ScalarKind, Value: x}, nil
	case int:
		return &Node{Kind: ScalarKind, Value: json.Number(strconv.Itoa(x))}, nil
	case int64:
		return &Node{Kind: ScalarKind, Value: json.Number(strconv.FormatInt(x, 10))}, nil
	case uint64:
		return &Node{Kind: ScalarKind, Value: json.Number(strconv.FormatUint(x, 10))}, nil
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, fmt.Errorf("number %v has no JSON representation", x)
		}
		return &Node{Kind: ScalarKind, Value: json.Number(strconv.FormatFloat(x, 'g', -1, 64))}, nil
	default:
		return nil, fmt.Errorf("unsupported scalar type %T", v)
	}
}

// String returns a string scalar node.
func String(s string) *Node {
	return &Node{Kind: ScalarKind, Value: s}
}

// Get returns the child of a mapping stored under key.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != MappingKind {
		return nil, false
	}
	child, ok := n.Fields[key]
	return child, ok
}

// Set stores child under key. An existing key keeps its position; a new
// key is appended.
func (n *Node) Set(key string, child *Node) {
	if n.Fields == nil {
		n.Fields = map[string]*Node{}
	}
	if _, ok := n.Fields[key]; !ok {
		n.Keys = append(n.Keys, key)
	}
	n.Fields[key] = child
}

// StringField returns the string stored under key when n is a mapping and
// the value is a string scalar.
func (n *Node) StringField(key string) (string, bool) {
	child, ok := n.Get(key)
	if !ok || child.Kind != ScalarKind {
		return "", false
	}
	s, ok := child.Value.(string)
	return s, ok
}

// Clone returns a deep copy of n.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp, err := copystructure.Copy(n)
	if err != nil {
		// copystructure only fails on types a Node never holds.
		panic(fmt.Sprintf("document: clone: %v", err))
	}
	return cp.(*Node)
}
