package output

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dshills/cfgmerge/internal/fsutil"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport renders the report and writes it to outPath, or to stdout
// when outPath is empty. A report file is replaced atomically, so a failed
// render never leaves a half-written file behind.
func WriteReport(report *Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		return writer.Write(os.Stdout, report)
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, report); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(outPath, buf.Bytes(), fsutil.DefaultPerm); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
