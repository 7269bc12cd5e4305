package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tidwall/jsonc"
)

// Format names a serialization of a settings document.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name. The empty string is returned as-is
// so callers can fall back to DetectFormat.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "jsonc":
		return FormatJSONC, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported document format: %s", s)
	}
}

// DetectFormat picks a format from the file extension. Unknown extensions
// are treated as JSONC, which also accepts plain JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatJSONC
	}
}

// Parse decodes data in the given format. Both JSON formats accept
// comments and trailing commas. Input that is empty or only whitespace
// yields an empty mapping.
func Parse(data []byte, format Format) (*Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewMapping(), nil
	}
	switch format {
	case FormatJSON, FormatJSONC, "":
		// Files named .json are often hand-edited with comments and trailing
		// commas. jsonc accepts those and leaves strict JSON as it is.
		return parseJSON(jsonc.ToJSON(data))
	case FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported document format: %s", format)
	}
}

// Marshal encodes n in the given format. indent is the per-level
// indentation; empty means two spaces. The output ends with a newline.
func Marshal(n *Node, format Format, indent string) ([]byte, error) {
	if indent == "" {
		indent = "  "
	}
	switch format {
	case FormatJSON, FormatJSONC, "":
		return marshalJSON(n, indent)
	case FormatYAML:
		return marshalYAML(n, indent)
	default:
		return nil, fmt.Errorf("unsupported document format: %s", format)
	}
}

// CompactJSON encodes n as single-line JSON.
func CompactJSON(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Equal reports whether a and b hold the same data. Mapping key order is
// ignored; sequence order is not. Numbers compare by value, so 1 and 1.0
// are equal and replacing one with the other is not a change.
func Equal(a, b *Node) bool {
	ab, err := CompactJSON(a)
	if err != nil {
		return false
	}
	bb, err := CompactJSON(b)
	if err != nil {
		return false
	}
	return jsonpatch.Equal(ab, bb)
}

// MergePatch returns the RFC 7396 merge patch that turns before into after.
func MergePatch(before, after *Node) ([]byte, error) {
	ab, err := CompactJSON(before)
	if err != nil {
		return nil, err
	}
	bb, err := CompactJSON(after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(ab, bb)
}

// DetectIndent returns the per-level indentation used by data: a tab when
// indented lines start with tabs, otherwise the greatest common divisor of
// the leading space counts. Data without indentation yields "".
func DetectIndent(data []byte) string {
	var widths []int
	for _, ln := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(ln)) == 0 {
			continue
		}
		if ln[0] == '\t' {
			return "\t"
		}
		n := 0
		for n < len(ln) && ln[n] == ' ' {
			n++
		}
		if n > 0 {
			widths = append(widths, n)
		}
	}
	if len(widths) == 0 {
		return ""
	}
	g := widths[0]
	for _, w := range widths[1:] {
		g = gcd(g, w)
		if g == 1 {
			break
		}
	}
	if g <= 0 || g > 8 {
		return ""
	}
	return strings.Repeat(" ", g)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func parseJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset())
	}
	return n, nil
}

func decodeJSONValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key at offset %d is not a string", dec.InputOffset())
				}
				child, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			seq := NewSequence()
			for dec.More() {
				child, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				seq.Items = append(seq.Items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q at offset %d", t, dec.InputOffset())
		}
	default:
		return &Node{Kind: ScalarKind, Value: t}, nil
	}
}

func marshalJSON(n *Node, indent string) ([]byte, error) {
	var compact bytes.Buffer
	if err := writeJSON(&compact, n); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, n *Node) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.Kind {
	case MappingKind:
		buf.WriteByte('{')
		for i, k := range n.Keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Fields[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case SequenceKind:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		switch v := n.Value.(type) {
		case nil:
			buf.WriteString("null")
		case bool:
			if v {
				buf.WriteString("true")
			} else {
				buf.WriteString("false")
			}
		case json.Number:
			if !json.Valid([]byte(v)) {
				return fmt.Errorf("invalid number %q", v)
			}
			buf.WriteString(v.String())
		case string:
			return writeJSONString(buf, v)
		default:
			return fmt.Errorf("unsupported scalar type %T", v)
		}
	}
	return nil
}

// writeJSONString encodes s without HTML escaping so values such as
// "<Ctrl>+T" survive a round trip unchanged.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
