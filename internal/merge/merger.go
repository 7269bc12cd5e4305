package merge

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dshills/cfgmerge/internal/backup"
	"github.com/dshills/cfgmerge/internal/document"
	"github.com/dshills/cfgmerge/internal/fsutil"
)

// Merger loads, edits and safely rewrites settings files.
type Merger struct {
	logger  *slog.Logger
	backups *backup.Store
	format  document.Format
	indent  string
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger used for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBackupStore sets where backups are written.
func WithBackupStore(s *backup.Store) Option {
	return func(m *Merger) {
		if s != nil {
			m.backups = s
		}
	}
}

// WithFormat forces a document format instead of detecting it from the
// file extension.
func WithFormat(f document.Format) Option {
	return func(m *Merger) { m.format = f }
}

// WithIndent forces the output indentation instead of reusing the one
// detected in the existing file.
func WithIndent(indent string) Option {
	return func(m *Merger) { m.indent = indent }
}

// New returns a Merger. Without options it detects formats from file
// extensions, keeps sibling backups and logs nothing.
func New(opts ...Option) *Merger {
	store, _ := backup.New(true, "", 0)
	m := &Merger{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		backups: store,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Options control a Merge run.
type Options struct {
	// CreateIfMissing starts from an empty mapping when the file is absent.
	CreateIfMissing bool
	// DryRun computes the result without writing anything.
	DryRun bool
	// NoBackup skips the backup before writing.
	NoBackup bool
}

// Load reads and parses the settings document at path.
func (m *Merger) Load(path string) (*document.Node, error) {
	data, err := m.read(path)
	if err != nil {
		return nil, err
	}
	return m.parse(path, data)
}

// Backup copies the current contents of path to a new, uniquely named
// backup file and returns its path. It returns "" when backups are
// disabled on the store.
func (m *Merger) Backup(path string) (string, error) {
	bp, err := m.backups.Create(path)
	if err != nil {
		kind := ErrIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = ErrNotFound
		}
		return "", &FileError{Kind: kind, Op: "backup", Path: path, Err: err}
	}
	if bp != "" {
		m.logger.Debug("backup written", "path", path, "backup", bp)
	}
	return bp, nil
}

// Apply applies ops to a copy of doc. See the package-level Apply.
func (m *Merger) Apply(doc *document.Node, ops []EditOperation) (*document.Node, error) {
	out, err := Apply(doc, ops)
	if err != nil {
		m.logger.Debug("apply aborted", "error", err)
		return nil, err
	}
	return out, nil
}

// Save serializes doc and atomically replaces path with it. Save does not
// take a backup; call Backup first when the prior state must be kept.
func (m *Merger) Save(doc *document.Node, path string) error {
	indent := m.indent
	if indent == "" {
		if data, err := os.ReadFile(path); err == nil {
			indent = document.DetectIndent(data)
		}
	}
	out, err := document.Marshal(doc, m.formatFor(path), indent)
	if err != nil {
		return &FileError{Kind: ErrIO, Op: "encode", Path: path, Err: err}
	}
	return m.write(path, out)
}

// Merge runs the whole batch against the file at path: load, apply, and
// when the document changed, back up and save. Running the same batch a
// second time finds nothing to change and touches no files.
func (m *Merger) Merge(path string, ops []EditOperation, opts Options) (*Result, error) {
	if err := ValidateBatch(ops); err != nil {
		return nil, err
	}

	format := m.formatFor(path)
	res := &Result{Path: path, Format: format, DryRun: opts.DryRun}

	data, err := m.read(path)
	var before *document.Node
	switch {
	case err == nil:
		before, err = m.parse(path, data)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, ErrNotFound) && opts.CreateIfMissing:
		before = document.NewMapping()
		res.Created = true
	default:
		return nil, err
	}

	after, changed, err := apply(before, ops)
	if err != nil {
		m.logger.Debug("apply aborted", "path", path, "error", err)
		return nil, err
	}
	for i, op := range ops {
		status := StatusUnchanged
		if changed[i] {
			status = StatusApplied
		}
		res.Operations = append(res.Operations, OpResult{
			Name:   op.Name,
			Kind:   op.Kind,
			Path:   op.TargetPath,
			Status: status,
		})
		m.logger.Debug("operation evaluated", "name", op.Name, "kind", op.Kind, "status", status)
	}

	res.Changed = !document.Equal(before, after)
	if !res.Changed {
		res.Created = false
		m.logger.Info("settings already up to date", "path", path)
		return res, nil
	}

	indent := m.indent
	if indent == "" {
		indent = document.DetectIndent(data)
	}
	out, err := document.Marshal(after, format, indent)
	if err != nil {
		return nil, &FileError{Kind: ErrIO, Op: "encode", Path: path, Err: err}
	}
	patch, err := document.MergePatch(before, after)
	if err == nil {
		res.Patch = json.RawMessage(patch)
	}
	res.Before = data
	res.After = out

	if opts.DryRun {
		m.logger.Info("dry run: settings would change", "path", path)
		return res, nil
	}

	if !res.Created && !opts.NoBackup {
		bp, err := m.Backup(path)
		if err != nil {
			return nil, err
		}
		res.BackupPath = bp
	}
	if err := m.write(path, out); err != nil {
		return nil, err
	}
	m.logger.Info("settings updated", "path", path, "backup", res.BackupPath, "created", res.Created)
	return res, nil
}

func (m *Merger) formatFor(path string) document.Format {
	if m.format != "" {
		return m.format
	}
	return document.DetectFormat(path)
}

func (m *Merger) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		kind := ErrIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = ErrNotFound
		}
		return nil, &FileError{Kind: kind, Op: "load", Path: path, Err: err}
	}
	return data, nil
}

func (m *Merger) parse(path string, data []byte) (*document.Node, error) {
	doc, err := document.Parse(data, m.formatFor(path))
	if err != nil {
		return nil, &FileError{Kind: ErrParse, Op: "load", Path: path, Err: err}
	}
	return doc, nil
}

func (m *Merger) write(path string, data []byte) error {
	if err := fsutil.WriteFileAtomic(path, data, fsutil.DefaultPerm); err != nil {
		return &FileError{Kind: ErrIO, Op: "save", Path: path, Err: err}
	}
	return nil
}
