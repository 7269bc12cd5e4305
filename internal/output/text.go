package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/cfgmerge/internal/merge"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.printf("cfgmerge %s: %s", report.Action, report.Path)
	if report.Format != "" {
		ew.printf(" (%s)", report.Format)
	}
	if report.Block != "" {
		ew.printf(" [block %s]", report.Block)
	}
	ew.println("")

	if len(report.Operations) > 0 {
		ew.println(strings.Repeat("─", 60))
		width := 0
		for _, op := range report.Operations {
			width = max(width, len(op.Name))
		}
		for _, op := range report.Operations {
			ew.printf("  %s %-*s  %s %s\n",
				statusIcon(op.Status), width, op.Name, op.Kind, FormatPath(op.Path))
		}
	}
	ew.println(strings.Repeat("─", 60))

	ew.println(summary(report))
	if report.BackupPath != "" {
		ew.printf("Backup: %s\n", report.BackupPath)
	}
	if report.Diff != "" {
		ew.printf("\n%s", report.Diff)
		if !strings.HasSuffix(report.Diff, "\n") {
			ew.println("")
		}
	}
	return ew.err
}

func summary(r *Report) string {
	if !r.Changed {
		return "Already up to date. Nothing written."
	}
	var what string
	switch {
	case len(r.Operations) > 0:
		what = fmt.Sprintf("%d of %d operations change the file", r.Applied(), len(r.Operations))
	case r.Deleted:
		what = "the block is removed and the file is left empty"
	default:
		what = "the file changes"
	}
	switch {
	case r.DryRun:
		return "Dry run: " + what + ". Nothing written."
	case r.Deleted:
		return "Removed " + r.Path + "."
	case r.Created:
		return "Created " + r.Path + ": " + what + "."
	default:
		return "Updated " + r.Path + ": " + what + "."
	}
}

// FormatPath renders a target path as /a/b/c.
func FormatPath(path []string) string {
	return "/" + strings.Join(path, "/")
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func statusIcon(s merge.Status) string {
	switch s {
	case merge.StatusApplied:
		return "[+]"
	case merge.StatusUnchanged:
		return "[=]"
	default:
		return "[?]"
	}
}
