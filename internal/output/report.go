package output

import (
	"encoding/json"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dshills/cfgmerge/internal/merge"
	"github.com/dshills/cfgmerge/internal/rcfile"
	"github.com/dshills/cfgmerge/internal/redact"
)

// Report is the printable outcome of one command against one file.
type Report struct {
	Action     string           `json:"action"`
	Path       string           `json:"path"`
	Format     string           `json:"format,omitempty"`
	Block      string           `json:"block,omitempty"`
	Changed    bool             `json:"changed"`
	Created    bool             `json:"created"`
	Deleted    bool             `json:"deleted,omitempty"`
	DryRun     bool             `json:"dryRun"`
	BackupPath string           `json:"backupPath,omitempty"`
	Operations []merge.OpResult `json:"operations,omitempty"`
	Patch      json.RawMessage  `json:"patch,omitempty"`
	Diff       string           `json:"diff,omitempty"`
}

// DiffOptions control the diff attached to a report.
type DiffOptions struct {
	// Include attaches a unified diff of the change.
	Include bool
	// Redact masks secrets and the values of Keys in the diff and patch.
	Redact bool
	Keys   []string
}

// Applied returns the number of operations that changed the document.
func (r *Report) Applied() int {
	n := 0
	for _, op := range r.Operations {
		if op.Status == merge.StatusApplied {
			n++
		}
	}
	return n
}

// FromMerge builds a report from a merge result.
func FromMerge(res *merge.Result, opts DiffOptions) (*Report, error) {
	r := &Report{
		Action:     "apply",
		Path:       res.Path,
		Format:     string(res.Format),
		Changed:    res.Changed,
		Created:    res.Created,
		DryRun:     res.DryRun,
		BackupPath: res.BackupPath,
		Operations: res.Operations,
		Patch:      res.Patch,
	}
	if opts.Redact && len(r.Patch) > 0 {
		masked := redact.Content(string(r.Patch), opts.Keys)
		if json.Valid([]byte(masked)) {
			r.Patch = json.RawMessage(masked)
		} else {
			r.Patch = nil
		}
	}
	if err := r.attachDiff(res.Before, res.After, opts); err != nil {
		return nil, err
	}
	return r, nil
}

// FromRC builds a report from an rc block install or removal.
func FromRC(action string, res *rcfile.Result, opts DiffOptions) (*Report, error) {
	r := &Report{
		Action:     action,
		Path:       res.Path,
		Block:      res.Block,
		Changed:    res.Changed,
		Created:    res.Created,
		Deleted:    res.Deleted,
		DryRun:     res.DryRun,
		BackupPath: res.BackupPath,
	}
	if err := r.attachDiff(res.Before, res.After, opts); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Report) attachDiff(before, after []byte, opts DiffOptions) error {
	if !opts.Include || !r.Changed {
		return nil
	}
	diff, err := UnifiedDiff(r.Path, before, after)
	if err != nil {
		return err
	}
	if opts.Redact {
		diff = redact.Content(diff, opts.Keys)
	}
	r.Diff = diff
	return nil
}

// UnifiedDiff renders the change from before to after with three lines of
// context.
func UnifiedDiff(path string, before, after []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(normalizeEOL(before)),
		B:        difflib.SplitLines(normalizeEOL(after)),
		FromFile: path,
		ToFile:   path + " (merged)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func normalizeEOL(b []byte) string {
	return strings.ReplaceAll(string(b), "\r\n", "\n")
}
