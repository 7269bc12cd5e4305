package merge

import (
	"fmt"
	"strings"

	"github.com/dshills/cfgmerge/internal/document"
)

// Kind selects how an EditOperation writes its payload.
type Kind string

const (
	// UpsertScalar sets a scalar value at the target path.
	UpsertScalar Kind = "UpsertScalar"
	// UpsertObject sets a mapping (or any value) at the target path.
	UpsertObject Kind = "UpsertObject"
	// UpsertIntoNamedList replaces the element of the list at the target
	// path whose "name" matches the payload's, appending it at the end.
	UpsertIntoNamedList Kind = "UpsertIntoNamedList"
)

// NameField is the key that identifies elements of a named list.
const NameField = "name"

// ParseKind accepts the canonical kind names case-insensitively, with or
// without '-' and '_' separators.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	switch norm {
	case "upsertscalar", "scalar":
		return UpsertScalar, nil
	case "upsertobject", "object":
		return UpsertObject, nil
	case "upsertintonamedlist", "namedlist":
		return UpsertIntoNamedList, nil
	default:
		return "", fmt.Errorf("unknown edit kind %q", s)
	}
}

// EditOperation is a named, idempotent change to a settings document.
type EditOperation struct {
	Name       string
	TargetPath []string
	Kind       Kind
	Payload    *document.Node
}

func (op EditOperation) String() string {
	return fmt.Sprintf("%s(%s %s)", op.Kind, op.Name, formatPath(op.TargetPath))
}

// Validate checks op in isolation. index is its position in the batch and
// only appears in error messages.
func (op EditOperation) Validate(index int) error {
	fail := func(format string, args ...any) error {
		return &ValidationError{Operation: op.Name, Index: index, Reason: fmt.Sprintf(format, args...)}
	}
	if strings.TrimSpace(op.Name) == "" {
		return fail("name is required")
	}
	if op.Payload == nil {
		return fail("payload is required")
	}
	for i, seg := range op.TargetPath {
		if seg == "" {
			return fail("path segment %d is empty", i)
		}
	}
	switch op.Kind {
	case UpsertScalar:
		if len(op.TargetPath) == 0 {
			return fail("%s needs a non-empty path", op.Kind)
		}
		if op.Payload.Kind != document.ScalarKind {
			return fail("%s payload must be a scalar, got %s", op.Kind, op.Payload.Kind)
		}
	case UpsertObject:
		if len(op.TargetPath) == 0 {
			return fail("%s needs a non-empty path", op.Kind)
		}
	case UpsertIntoNamedList:
		if op.Payload.Kind != document.MappingKind {
			return fail("%s payload must be a mapping, got %s", op.Kind, op.Payload.Kind)
		}
		if _, ok := op.Payload.StringField(NameField); !ok {
			return fail("%s payload needs a string %q field", op.Kind, NameField)
		}
	default:
		return fail("unknown kind %q", op.Kind)
	}
	return nil
}

// ValidateBatch validates every operation and rejects duplicate names.
func ValidateBatch(ops []EditOperation) error {
	seen := make(map[string]int, len(ops))
	for i, op := range ops {
		if err := op.Validate(i); err != nil {
			return err
		}
		if prev, ok := seen[op.Name]; ok {
			return &ValidationError{
				Operation: op.Name,
				Index:     i,
				Reason:    fmt.Sprintf("duplicate name (also operation #%d)", prev+1),
			}
		}
		seen[op.Name] = i
	}
	return nil
}
