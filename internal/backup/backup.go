package backup

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/dshills/cfgmerge/internal/fsutil"
)

const (
	suffix      = ".backup"
	stampLayout = "20060102T150405Z"
	maxAttempts = 1000
	// idBytes is the length of the target hash in shared-directory names.
	idBytes = 6
)

// ErrNotBackup is returned when a path handed to Restore is not a backup
// of the given target.
var ErrNotBackup = errors.New("not a backup of target")

// Entry describes one backup file.
type Entry struct {
	Path      string    `json:"path"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
	Seq       int       `json:"seq"`
	Size      int64     `json:"size"`
}

// Store creates and manages timestamped backups of settings files.
type Store struct {
	dir     string
	keep    int
	enabled bool
	now     func() time.Time
}

// New creates a Store. An empty dir keeps backups next to the file they
// protect. keep <= 0 disables automatic pruning.
func New(enabled bool, dir string, keep int) (*Store, error) {
	if !enabled {
		return &Store{enabled: false, now: time.Now}, nil
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating backup directory: %w", err)
		}
	}
	return &Store{
		dir:     dir,
		keep:    keep,
		enabled: true,
		now:     time.Now,
	}, nil
}

// WithClock returns a copy of s that reads the time from now.
func (s *Store) WithClock(now func() time.Time) *Store {
	cp := *s
	cp.now = now
	return &cp
}

// Create copies the current contents of target to a new backup file and
// returns its path. An existing backup is never overwritten: a second
// backup within the same second gets a numeric suffix. Returns "" when the
// store is disabled.
func (s *Store) Create(target string) (string, error) {
	if !s.enabled {
		return "", nil
	}
	data, perm, err := fsutil.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", target, err)
	}

	stamp := s.now().UTC().Format(stampLayout)
	for seq := 0; seq < maxAttempts; seq++ {
		path := s.backupPath(target, stamp, seq)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", fmt.Errorf("creating backup file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("writing backup file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("closing backup file: %w", err)
		}
		if s.keep > 0 {
			if _, err := s.Prune(target, s.keep); err != nil {
				return path, fmt.Errorf("pruning old backups: %w", err)
			}
		}
		return path, nil
	}
	return "", fmt.Errorf("no free backup name for %s after %d attempts", target, maxAttempts)
}

// List returns the backups of target, newest first.
func (s *Store) List(target string) ([]Entry, error) {
	dir := s.backupDir(target)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}
	prefix := s.namePrefix(target)
	var out []Entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		createdAt, seq, ok := parseName(prefix, e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Path:      filepath.Join(dir, e.Name()),
			Target:    target,
			CreatedAt: createdAt,
			Seq:       seq,
			Size:      info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

// Prune removes all but the newest keep backups of target and returns how
// many were removed.
func (s *Store) Prune(target string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	entries, err := s.List(target)
	if err != nil {
		return 0, err
	}
	var removed int
	for _, e := range entries[min(keep, len(entries)):] {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing %s: %w", e.Path, err)
		}
		removed++
	}
	return removed, nil
}

// Restore replaces target with the contents of backupPath. The current
// target, if present, is backed up first; its backup path is returned.
func (s *Store) Restore(target, backupPath string) (string, error) {
	if filepath.Clean(filepath.Dir(backupPath)) != filepath.Clean(s.backupDir(target)) {
		return "", fmt.Errorf("%s: %w %s", backupPath, ErrNotBackup, target)
	}
	if _, _, ok := parseName(s.namePrefix(target), filepath.Base(backupPath)); !ok {
		return "", fmt.Errorf("%s: %w %s", backupPath, ErrNotBackup, target)
	}
	data, perm, err := fsutil.ReadFile(backupPath)
	if err != nil {
		return "", fmt.Errorf("reading backup: %w", err)
	}

	var saved string
	if _, err := os.Stat(target); err == nil {
		saved, err = s.Create(target)
		if err != nil {
			return "", err
		}
	}
	if err := fsutil.WriteFileAtomic(target, data, perm); err != nil {
		return saved, err
	}
	return saved, nil
}

// Stats summarizes the backups of one target.
type Stats struct {
	Target     string    `json:"target"`
	Dir        string    `json:"dir"`
	Entries    int       `json:"entries"`
	TotalBytes int64     `json:"totalBytes"`
	Newest     time.Time `json:"newest,omitempty"`
	Oldest     time.Time `json:"oldest,omitempty"`
}

// GetStats returns information about the backups of target.
func (s *Store) GetStats(target string) (Stats, error) {
	stats := Stats{Target: target, Dir: s.backupDir(target)}
	entries, err := s.List(target)
	if err != nil {
		return stats, err
	}
	for _, e := range entries {
		stats.Entries++
		stats.TotalBytes += e.Size
	}
	if len(entries) > 0 {
		stats.Newest = entries[0].CreatedAt
		stats.Oldest = entries[len(entries)-1].CreatedAt
	}
	return stats, nil
}

func (s *Store) backupDir(target string) string {
	if s.dir != "" {
		return s.dir
	}
	return filepath.Dir(target)
}

func (s *Store) backupPath(target, stamp string, seq int) string {
	name := s.namePrefix(target) + "." + stamp
	if seq > 0 {
		name += "-" + strconv.Itoa(seq)
	}
	return filepath.Join(s.backupDir(target), name+suffix)
}

// namePrefix is the part of a backup name that identifies its target.
// Sibling backups share the target's directory, so the base name is
// enough. A shared backup directory also gets a short hash of the absolute
// target path, keeping two settings.json files from different programs
// apart.
func (s *Store) namePrefix(target string) string {
	base := filepath.Base(target)
	if s.dir == "" {
		return base
	}
	return base + "." + targetID(target)
}

func targetID(target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	sum := blake3.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:idBytes])
}

// parseName reports whether name is a backup whose name starts with prefix
// and returns its timestamp and sequence number.
func parseName(prefix, name string) (time.Time, int, bool) {
	prefix += "."
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return time.Time{}, 0, false
	}
	middle := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	stamp, seqText, hasSeq := strings.Cut(middle, "-")
	createdAt, err := time.Parse(stampLayout, stamp)
	if err != nil {
		return time.Time{}, 0, false
	}
	seq := 0
	if hasSeq {
		seq, err = strconv.Atoi(seqText)
		if err != nil || seq <= 0 {
			return time.Time{}, 0, false
		}
	}
	return createdAt, seq, true
}
