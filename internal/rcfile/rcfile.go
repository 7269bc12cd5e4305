package rcfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dshills/cfgmerge/internal/backup"
	"github.com/dshills/cfgmerge/internal/fsutil"
)

// DefaultComment is the comment prefix used when a block does not set one.
const DefaultComment = "#"

const markerTag = "cfgmerge:"

// Block is a named section of an rc file.
type Block struct {
	Name string
	Body string
	// Comment is the line comment prefix of the host file ("#", ";", "REM").
	Comment string
}

// Validate rejects names and bodies that would produce ambiguous markers.
func (b Block) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("block name is required")
	}
	if strings.ContainsAny(b.Name, " \t\r\n<>") {
		return fmt.Errorf("block name %q must not contain whitespace or angle brackets", b.Name)
	}
	if strings.ContainsAny(b.comment(), "\r\n") {
		return errors.New("comment prefix must be a single line")
	}
	start, end := markers(b.Name, b.comment())
	for _, line := range strings.Split(strings.ReplaceAll(b.Body, "\r\n", "\n"), "\n") {
		if l := strings.TrimSpace(line); l == start || l == end {
			return fmt.Errorf("block %q body contains its own marker line", b.Name)
		}
	}
	return nil
}

func (b Block) comment() string {
	if b.Comment == "" {
		return DefaultComment
	}
	return b.Comment
}

func markers(name, comment string) (start, end string) {
	return comment + " >>> " + markerTag + name + " >>>",
		comment + " <<< " + markerTag + name + " <<<"
}

// Render returns the block with its markers, each line ending in eol.
func Render(b Block, eol string) string {
	start, end := markers(b.Name, b.comment())
	var sb strings.Builder
	sb.WriteString(start + eol)
	body := strings.TrimRight(strings.ReplaceAll(b.Body, "\r\n", "\n"), "\n")
	if body != "" {
		sb.WriteString(strings.ReplaceAll(body, "\n", eol))
		sb.WriteString(eol)
	}
	sb.WriteString(end + eol)
	return sb.String()
}

// ErrMalformed is returned when a block's markers do not pair up: a start
// marker without its end, an end before its start, or the block twice.
// Nothing is rewritten in that case, since the extent of the block is
// unknown.
var ErrMalformed = errors.New("malformed block markers")

// Upsert returns content with b installed. An existing block of the same
// name is replaced where it stands; otherwise the block is appended after a
// blank line. Line endings follow the existing content.
func Upsert(content string, b Block) (string, error) {
	eol := lineEnding(content)
	section := Render(b, eol)

	start, stop, ok, err := find(content, b.Name, b.comment())
	if err != nil {
		return content, err
	}
	if ok {
		return content[:start] + section + content[stop:], nil
	}
	if content == "" {
		return section, nil
	}
	if !strings.HasSuffix(content, "\n") {
		content += eol
	}
	if !strings.HasSuffix(content, eol+eol) {
		content += eol
	}
	return content + section, nil
}

// Remove returns content without the named block and whether a block was
// found. The blank separator line Upsert adds before an appended block is
// removed with it.
func Remove(content, name, comment string) (string, bool, error) {
	if comment == "" {
		comment = DefaultComment
	}
	start, stop, ok, err := find(content, name, comment)
	if err != nil || !ok {
		return content, false, err
	}
	before, after := content[:start], content[stop:]
	if after == "" {
		eol := lineEnding(content)
		if strings.HasSuffix(before, eol+eol) {
			before = strings.TrimSuffix(before, eol)
		}
	}
	return before + after, true, nil
}

// find locates the named block. start is the beginning of the start
// marker's line and stop is just past the end marker's line break, if it
// has one.
func find(content, name, comment string) (start, stop int, ok bool, err error) {
	startMarker, endMarker := markers(name, comment)
	starts := findLines(content, startMarker)
	ends := findLines(content, endMarker)
	switch {
	case len(starts) == 0 && len(ends) == 0:
		return 0, 0, false, nil
	case len(starts) == 0:
		return 0, 0, false, fmt.Errorf("block %q: %w: end marker without a start marker", name, ErrMalformed)
	case len(ends) == 0:
		return 0, 0, false, fmt.Errorf("block %q: %w: start marker without an end marker", name, ErrMalformed)
	case len(starts) > 1 || len(ends) > 1:
		return 0, 0, false, fmt.Errorf("block %q: %w: %d start and %d end markers", name, ErrMalformed, len(starts), len(ends))
	case ends[0] < starts[0]:
		return 0, 0, false, fmt.Errorf("block %q: %w: end marker before start marker", name, ErrMalformed)
	}
	return starts[0], nextLine(content, ends[0]), true, nil
}

// findLines returns the start offsets of every line whose trimmed text
// equals line.
func findLines(content, line string) []int {
	var out []int
	for from := 0; from < len(content); {
		i := findLine(content, line, from)
		if i < 0 {
			break
		}
		out = append(out, i)
		from = nextLine(content, i)
	}
	return out
}

// findLine returns the offset of the first line at or after from whose
// trimmed text equals line, or -1.
func findLine(content, line string, from int) int {
	for from < len(content) {
		i := strings.Index(content[from:], line)
		if i < 0 {
			return -1
		}
		i += from
		lineStart := strings.LastIndexByte(content[:i], '\n') + 1
		rest := content[i+len(line):]
		lineEnd := strings.IndexByte(rest, '\n')
		if lineEnd < 0 {
			lineEnd = len(rest)
		}
		if strings.TrimSpace(content[lineStart:i]) == "" && strings.TrimSpace(rest[:lineEnd]) == "" {
			return lineStart
		}
		from = i + len(line)
	}
	return -1
}

// nextLine returns the offset just past the line break of the line
// containing i, or len(content) on the last line.
func nextLine(content string, i int) int {
	if j := strings.IndexByte(content[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(content)
}

func lineEnding(content string) string {
	if strings.Contains(content, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// FileOptions control InstallFile and RemoveFile.
type FileOptions struct {
	// Backups receives a copy of the file before it is changed. Nil skips
	// the backup.
	Backups *backup.Store
	// DryRun computes the result without writing.
	DryRun bool
}

// Result reports what a file operation did.
type Result struct {
	Path       string `json:"path"`
	Block      string `json:"block"`
	Changed    bool   `json:"changed"`
	Created    bool   `json:"created"`
	Deleted    bool   `json:"deleted"`
	DryRun     bool   `json:"dryRun"`
	BackupPath string `json:"backupPath,omitempty"`

	Before []byte `json:"-"`
	After  []byte `json:"-"`
}

// InstallFile upserts b into the file at path, creating the file when it
// does not exist. Nothing is written when the block is already current.
func InstallFile(path string, b Block, opts FileOptions) (*Result, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Path: path, Block: b.Name, DryRun: opts.DryRun}

	data, _, err := fsutil.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		res.Created = true
	}

	updated, err := Upsert(string(data), b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if updated == string(data) {
		res.Created = false
		return res, nil
	}
	res.Changed = true
	res.Before = data
	res.After = []byte(updated)
	if opts.DryRun {
		return res, nil
	}

	if !res.Created {
		if res.BackupPath, err = backupFile(opts.Backups, path); err != nil {
			return nil, err
		}
	}
	if err := fsutil.WriteFileAtomic(path, res.After, fsutil.DefaultPerm); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}

// RemoveFile removes the named block from the file at path. A missing file
// or block is not an error. When nothing but whitespace remains the file
// itself is deleted, unless path is a symlink, which is kept.
func RemoveFile(path, name, comment string, opts FileOptions) (*Result, error) {
	res := &Result{Path: path, Block: name, DryRun: opts.DryRun}

	data, _, err := fsutil.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	updated, found, err := Remove(string(data), name, comment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !found {
		return res, nil
	}
	res.Changed = true
	res.Deleted = strings.TrimSpace(updated) == "" && !isSymlink(path)
	res.Before = data
	res.After = []byte(updated)
	if opts.DryRun {
		return res, nil
	}

	if res.BackupPath, err = backupFile(opts.Backups, path); err != nil {
		return nil, err
	}
	if res.Deleted {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("removing %s: %w", path, err)
		}
		return res, nil
	}
	if err := fsutil.WriteFileAtomic(path, res.After, fsutil.DefaultPerm); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}

func backupFile(s *backup.Store, path string) (string, error) {
	if s == nil {
		return "", nil
	}
	bp, err := s.Create(path)
	if err != nil {
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	return bp, nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}
