package output

import (
	"io"
	"strings"
)

// MarkdownWriter outputs a markdown summary suitable for change logs and
// pull request descriptions.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.printf("## cfgmerge %s\n\n", report.Action)
	ew.printf("**File:** `%s`", report.Path)
	if report.Block != "" {
		ew.printf(" | **Block:** `%s`", report.Block)
	}
	ew.printf("\n\n")

	if len(report.Operations) > 0 {
		ew.printf("| Operation | Kind | Path | Status |\n")
		ew.printf("|-----------|------|------|--------|\n")
		for _, op := range report.Operations {
			ew.printf("| %s | %s | `%s` | %s |\n",
				mdEscape(op.Name), op.Kind, FormatPath(op.Path), op.Status)
		}
		ew.printf("\n")
	}

	ew.printf("%s\n", summary(report))
	if report.BackupPath != "" {
		ew.printf("\nBackup: `%s`\n", report.BackupPath)
	}

	if report.Diff != "" {
		ew.printf("\n<details>\n<summary>Diff</summary>\n\n```diff\n%s", report.Diff)
		if !strings.HasSuffix(report.Diff, "\n") {
			ew.printf("\n")
		}
		ew.printf("```\n\n</details>\n")
	}
	return ew.err
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
