package merge

import (
	"encoding/json"

	"github.com/dshills/cfgmerge/internal/document"
)

// Status is the outcome of a single operation within a Merge.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusUnchanged Status = "unchanged"
)

// OpResult reports what one operation did.
type OpResult struct {
	Name   string   `json:"name"`
	Kind   Kind     `json:"kind"`
	Path   []string `json:"path"`
	Status Status   `json:"status"`
}

// Result summarizes a Merge run.
type Result struct {
	Path       string          `json:"path"`
	Format     document.Format `json:"format"`
	Created    bool            `json:"created"`
	Changed    bool            `json:"changed"`
	DryRun     bool            `json:"dryRun"`
	BackupPath string          `json:"backupPath,omitempty"`
	Operations []OpResult      `json:"operations"`
	Patch      json.RawMessage `json:"patch,omitempty"`

	// Before and After hold the file contents around the change; After is
	// only set when the document changed.
	Before []byte `json:"-"`
	After  []byte `json:"-"`
}

// Applied returns the number of operations that changed the document.
func (r *Result) Applied() int {
	n := 0
	for _, op := range r.Operations {
		if op.Status == StatusApplied {
			n++
		}
	}
	return n
}
