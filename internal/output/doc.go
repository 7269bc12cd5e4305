// Package output formats command reports for display or machine consumption.
//
// Three formats are supported:
//   - text: human-readable terminal output (default)
//   - json: full structured JSON report, including the merge patch
//   - markdown: summary table with the diff in a collapsible section
//
// Build a [Report] with [FromMerge] or [FromRC], obtain a [Writer] with
// [GetWriter], then call [Writer.Write]. [WriteReport] handles destination
// selection. Diffs are rendered with [UnifiedDiff] and pass through the
// redact package before they are attached.
package output
