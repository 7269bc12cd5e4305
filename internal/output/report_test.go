package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/cfgmerge/internal/document"
	"github.com/dshills/cfgmerge/internal/merge"
	"github.com/dshills/cfgmerge/internal/rcfile"
)

func sampleMerge(dryRun bool) *merge.Result {
	return &merge.Result{
		Path:    "/home/u/settings.json",
		Format:  document.FormatJSON,
		Changed: true,
		DryRun:  dryRun,
		Operations: []merge.OpResult{
			{Name: "theme", Kind: merge.UpsertScalar, Path: []string{"theme"}, Status: merge.StatusApplied},
			{Name: "font", Kind: merge.UpsertObject, Path: []string{"profiles", "defaults", "font"}, Status: merge.StatusUnchanged},
		},
		Patch:  json.RawMessage(`{"apiKey":"abcdefghijklmnopqrstuvwxyz012345","theme":"dark"}`),
		Before: []byte("{\n  \"theme\": \"light\"\n}\n"),
		After:  []byte("{\n  \"theme\": \"dark\",\n  \"apiKey\": \"abcdefghijklmnopqrstuvwxyz012345\"\n}\n"),
	}
}

func TestUnifiedDiff(t *testing.T) {
	diff, err := UnifiedDiff("a.json", []byte("x\ny\n"), []byte("x\nz\n"))
	if err != nil {
		t.Fatalf("UnifiedDiff error: %v", err)
	}
	for _, want := range []string{"--- a.json", "+++ a.json (merged)", "-y", "+z", " x"} {
		if !strings.Contains(diff, want) {
			t.Errorf("diff missing %q:\n%s", want, diff)
		}
	}
}

func TestUnifiedDiff_IgnoresCRLF(t *testing.T) {
	diff, err := UnifiedDiff("a", []byte("x\r\ny\r\n"), []byte("x\ny\n"))
	if err != nil {
		t.Fatalf("UnifiedDiff error: %v", err)
	}
	if diff != "" {
		t.Errorf("line ending change alone should give no diff, got:\n%s", diff)
	}
}

func TestFromMerge(t *testing.T) {
	r, err := FromMerge(sampleMerge(true), DiffOptions{Include: true})
	if err != nil {
		t.Fatalf("FromMerge error: %v", err)
	}
	if r.Action != "apply" || r.Format != "json" {
		t.Errorf("Action/Format = %q/%q", r.Action, r.Format)
	}
	if r.Applied() != 1 {
		t.Errorf("Applied() = %d, want 1", r.Applied())
	}
	if !strings.Contains(r.Diff, "+  \"theme\": \"dark\",") {
		t.Errorf("diff missing new line:\n%s", r.Diff)
	}
}

func TestFromMerge_Redacts(t *testing.T) {
	r, err := FromMerge(sampleMerge(true), DiffOptions{Include: true, Redact: true, Keys: []string{"theme"}})
	if err != nil {
		t.Fatalf("FromMerge error: %v", err)
	}
	if strings.Contains(r.Diff, "abcdefghijklmnopqrstuvwxyz012345") {
		t.Errorf("secret leaked into diff:\n%s", r.Diff)
	}
	if strings.Contains(r.Diff, "dark") {
		t.Errorf("value of a redacted key leaked into diff:\n%s", r.Diff)
	}
	if strings.Contains(string(r.Patch), "abcdefghijklmnopqrstuvwxyz012345") {
		t.Errorf("secret leaked into patch: %s", r.Patch)
	}
	if r.Patch != nil && !json.Valid(r.Patch) {
		t.Errorf("patch is not valid JSON: %s", r.Patch)
	}
}

func TestFromMerge_NoDiffWhenUnchanged(t *testing.T) {
	res := sampleMerge(false)
	res.Changed = false
	r, err := FromMerge(res, DiffOptions{Include: true})
	if err != nil {
		t.Fatalf("FromMerge error: %v", err)
	}
	if r.Diff != "" {
		t.Errorf("Diff = %q, want empty", r.Diff)
	}
}

func TestFromRC(t *testing.T) {
	res := &rcfile.Result{
		Path:    "/home/u/.bashrc",
		Block:   "prompt",
		Changed: true,
		Before:  []byte("export A=1\n"),
		After:   []byte("export A=1\n\n# >>> cfgmerge:prompt >>>\necho hi\n# <<< cfgmerge:prompt <<<\n"),
	}
	r, err := FromRC("rc install", res, DiffOptions{Include: true})
	if err != nil {
		t.Fatalf("FromRC error: %v", err)
	}
	if r.Block != "prompt" {
		t.Errorf("Block = %q, want %q", r.Block, "prompt")
	}
	if !strings.Contains(r.Diff, "+echo hi") {
		t.Errorf("diff missing block body:\n%s", r.Diff)
	}
}

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"text", "json", "markdown", ""} {
		if _, err := GetWriter(format); err != nil {
			t.Errorf("GetWriter(%q) error: %v", format, err)
		}
	}
	if _, err := GetWriter("sarif"); err == nil {
		t.Error("GetWriter(sarif) should fail")
	}
}
