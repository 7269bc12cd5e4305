package merge

import (
	"fmt"
	"strconv"

	"github.com/dshills/cfgmerge/internal/document"
)

// Apply returns a copy of doc with ops applied in order; doc itself is
// never modified. Intermediate mappings along a target path are created as
// needed. The first operation that cannot be applied aborts the batch and
// its error is returned together with a nil document, so a partially
// edited tree can never reach disk.
func Apply(doc *document.Node, ops []EditOperation) (*document.Node, error) {
	out, _, err := apply(doc, ops)
	return out, err
}

// apply is Apply that also reports, per operation, whether it changed the
// document.
func apply(doc *document.Node, ops []EditOperation) (*document.Node, []bool, error) {
	if err := ValidateBatch(ops); err != nil {
		return nil, nil, err
	}
	work := document.Clone(doc)
	if work == nil {
		work = document.NewMapping()
	}
	changed := make([]bool, len(ops))
	for i, op := range ops {
		snapshot := document.Clone(work)
		if err := applyOne(work, op); err != nil {
			return nil, nil, err
		}
		changed[i] = !document.Equal(snapshot, work)
	}
	return work, changed, nil
}

func applyOne(root *document.Node, op EditOperation) error {
	switch op.Kind {
	case UpsertScalar, UpsertObject:
		return upsertValue(root, op)
	case UpsertIntoNamedList:
		return upsertNamed(root, op)
	default:
		return &ValidationError{Operation: op.Name, Reason: fmt.Sprintf("unknown kind %q", op.Kind)}
	}
}

func upsertValue(root *document.Node, op EditOperation) error {
	last := len(op.TargetPath) - 1
	parent, err := descend(root, op, op.TargetPath[:last])
	if err != nil {
		return err
	}
	key := op.TargetPath[last]
	value := document.Clone(op.Payload)
	switch parent.Kind {
	case document.MappingKind:
		parent.Set(key, value)
		return nil
	case document.SequenceKind:
		idx, err := index(key, len(parent.Items))
		if err != nil {
			return pathError(op, last, err.Error())
		}
		parent.Items[idx] = value
		return nil
	default:
		return pathError(op, last, "cannot set a key on a "+describe(parent))
	}
}

func upsertNamed(root *document.Node, op EditOperation) error {
	list, err := namedList(root, op)
	if err != nil {
		return err
	}
	name, _ := op.Payload.StringField(NameField)
	kept := list.Items[:0:0]
	for _, item := range list.Items {
		if existing, ok := item.StringField(NameField); ok && existing == name {
			continue
		}
		kept = append(kept, item)
	}
	list.Items = append(kept, document.Clone(op.Payload))
	return nil
}

// namedList resolves the sequence an UpsertIntoNamedList targets. A
// missing (or null) final key is initialized to an empty sequence.
func namedList(root *document.Node, op EditOperation) (*document.Node, error) {
	if len(op.TargetPath) == 0 {
		if root.Kind != document.SequenceKind {
			return nil, pathError(op, 0, "document root is a "+describe(root)+", not a list")
		}
		return root, nil
	}
	last := len(op.TargetPath) - 1
	parent, err := descend(root, op, op.TargetPath[:last])
	if err != nil {
		return nil, err
	}
	key := op.TargetPath[last]

	var list *document.Node
	switch parent.Kind {
	case document.MappingKind:
		child, ok := parent.Get(key)
		if !ok || isNull(child) {
			child = document.NewSequence()
			parent.Set(key, child)
		}
		list = child
	case document.SequenceKind:
		idx, err := index(key, len(parent.Items))
		if err != nil {
			return nil, pathError(op, last, err.Error())
		}
		list = parent.Items[idx]
	default:
		return nil, pathError(op, last, "cannot descend into a "+describe(parent))
	}
	if list.Kind != document.SequenceKind {
		return nil, pathError(op, last, "expected a list, found a "+describe(list))
	}
	return list, nil
}

// descend walks segs from root, creating empty mappings for missing or
// null mapping entries. Sequences are only indexed, never created or
// extended.
func descend(root *document.Node, op EditOperation, segs []string) (*document.Node, error) {
	cur := root
	for depth, seg := range segs {
		switch cur.Kind {
		case document.MappingKind:
			child, ok := cur.Get(seg)
			if !ok || isNull(child) {
				child = document.NewMapping()
				cur.Set(seg, child)
			}
			cur = child
		case document.SequenceKind:
			idx, err := index(seg, len(cur.Items))
			if err != nil {
				return nil, pathError(op, depth, err.Error())
			}
			cur = cur.Items[idx]
		default:
			return nil, pathError(op, depth, "cannot descend into a "+describe(cur))
		}
	}
	return cur, nil
}

func index(seg string, n int) (int, error) {
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("%q is not a list index", seg)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("index %d out of range (list has %d elements)", idx, n)
	}
	return idx, nil
}

func isNull(n *document.Node) bool {
	return n == nil || (n.Kind == document.ScalarKind && n.Value == nil)
}

func describe(n *document.Node) string {
	if n.Kind == document.ScalarKind {
		return fmt.Sprintf("scalar (%v)", n.Value)
	}
	return n.Kind.String()
}

func pathError(op EditOperation, depth int, reason string) error {
	return &PathError{
		Operation: op.Name,
		Path:      append([]string(nil), op.TargetPath...),
		Depth:     depth,
		Reason:    reason,
	}
}
