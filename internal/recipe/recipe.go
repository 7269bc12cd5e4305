package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/cfgmerge/internal/document"
	"github.com/dshills/cfgmerge/internal/merge"
)

// Recipe is a decoded edit batch.
type Recipe struct {
	Target string
	Format document.Format
	Edits  []merge.EditOperation
}

type rawRecipe struct {
	Target string    `yaml:"target"`
	Format string    `yaml:"format"`
	Edits  []rawEdit `yaml:"edits"`
}

type rawEdit struct {
	Name  string    `yaml:"name"`
	Kind  string    `yaml:"kind"`
	Path  yaml.Node `yaml:"path"`
	Value yaml.Node `yaml:"value"`
}

// Parse decodes a recipe and validates its edits.
func Parse(data []byte) (*Recipe, error) {
	var raw rawRecipe
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing recipe: %w", err)
	}

	format, err := document.ParseFormat(raw.Format)
	if err != nil {
		return nil, err
	}
	target, err := ExpandHome(raw.Target)
	if err != nil {
		return nil, err
	}
	r := &Recipe{Target: target, Format: format}

	for i, e := range raw.Edits {
		op, err := e.operation()
		if err != nil {
			label := e.Name
			if label == "" {
				label = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("edit %s: %w", label, err)
		}
		r.Edits = append(r.Edits, op)
	}
	if err := merge.ValidateBatch(r.Edits); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads and parses the recipe at path.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func (e rawEdit) operation() (merge.EditOperation, error) {
	kind, err := merge.ParseKind(e.Kind)
	if err != nil {
		return merge.EditOperation{}, err
	}
	path, err := decodePath(&e.Path)
	if err != nil {
		return merge.EditOperation{}, err
	}
	if e.Value.Kind == 0 {
		return merge.EditOperation{}, fmt.Errorf("value is required")
	}
	payload, err := document.FromYAML(&e.Value)
	if err != nil {
		return merge.EditOperation{}, fmt.Errorf("value: %w", err)
	}
	return merge.EditOperation{
		Name:       e.Name,
		TargetPath: path,
		Kind:       kind,
		Payload:    payload,
	}, nil
}

// decodePath accepts either a sequence of scalars or a dotted string. Only
// the sequence form can name a key that contains a dot.
func decodePath(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil, nil
		}
		return strings.Split(n.Value, "."), nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, seg := range n.Content {
			if seg.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: path segments must be scalars", seg.Line)
			}
			out = append(out, seg.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: path must be a list or a dotted string", n.Line)
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
