package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(ts string) func() time.Time {
	tm, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return tm }
}

func writeTarget(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing target: %v", err)
	}
	return path
}

func TestStore_CreateAndList(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, `{"v":1}`)

	s, err := New(true, "", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s = s.WithClock(fixedClock("2026-10-16T09:30:00Z"))

	path, err := s.Create(target)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	want := filepath.Join(dir, "settings.json.20261016T093000Z.backup")
	if path != want {
		t.Errorf("backup path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(data) != `{"v":1}` {
		t.Errorf("backup content = %q", data)
	}

	entries, err := s.List(target)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != want {
		t.Fatalf("List = %+v, want one entry at %s", entries, want)
	}
	if entries[0].Size != int64(len(`{"v":1}`)) {
		t.Errorf("Size = %d", entries[0].Size)
	}
}

func TestStore_CreateNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "first")

	s, _ := New(true, "", 0)
	s = s.WithClock(fixedClock("2026-10-16T09:30:00Z"))

	first, err := s.Create(target)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := os.WriteFile(target, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := s.Create(target)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if first == second {
		t.Fatalf("second backup reused path %s", first)
	}
	if filepath.Base(second) != "settings.json.20261016T093000Z-1.backup" {
		t.Errorf("second backup name = %s", filepath.Base(second))
	}

	data, _ := os.ReadFile(first)
	if string(data) != "first" {
		t.Errorf("first backup overwritten: %q", data)
	}

	entries, _ := s.List(target)
	if len(entries) != 2 || entries[0].Path != second {
		t.Errorf("List order = %+v, want newest (seq 1) first", entries)
	}
}

func TestStore_CreateMissingTarget(t *testing.T) {
	s, _ := New(true, "", 0)
	if _, err := s.Create(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error backing up a missing file")
	}
}

func TestStore_Disabled(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "x")

	s, err := New(false, "", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	path, err := s.Create(target)
	if err != nil || path != "" {
		t.Errorf("Create on disabled store = (%q, %v), want (\"\", nil)", path, err)
	}
	if entries, _ := s.List(target); len(entries) != 0 {
		t.Errorf("disabled store wrote %d backups", len(entries))
	}
}

func TestStore_PruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "x")

	s, _ := New(true, "", 0)
	times := []string{"2026-10-01T00:00:00Z", "2026-10-02T00:00:00Z", "2026-10-03T00:00:00Z", "2026-10-04T00:00:00Z"}
	for _, ts := range times {
		if _, err := s.WithClock(fixedClock(ts)).Create(target); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	removed, err := s.Prune(target, 2)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	entries, _ := s.List(target)
	if len(entries) != 2 {
		t.Fatalf("entries after prune = %d, want 2", len(entries))
	}
	if entries[0].CreatedAt.Day() != 4 || entries[1].CreatedAt.Day() != 3 {
		t.Errorf("wrong backups kept: %v, %v", entries[0].CreatedAt, entries[1].CreatedAt)
	}
}

func TestStore_AutoPrune(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "x")

	s, _ := New(true, "", 1)
	for _, ts := range []string{"2026-10-01T00:00:00Z", "2026-10-02T00:00:00Z"} {
		if _, err := s.WithClock(fixedClock(ts)).Create(target); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}
	entries, _ := s.List(target)
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1 with keep=1", len(entries))
	}
}

func TestStore_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "x")
	for _, name := range []string{
		"settings.json.backup",
		"settings.json.notastamp.backup",
		"other.json.20261016T093000Z.backup",
		"settings.json.20261016T093000Z-0.backup",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	s, _ := New(true, "", 0)
	entries, err := s.List(target)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List picked up unrelated files: %+v", entries)
	}
}

func TestStore_SeparateDirectory(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "x")
	backupDir := filepath.Join(t.TempDir(), "backups")

	s, err := New(true, backupDir, 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	path, err := s.Create(target)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if filepath.Dir(path) != backupDir {
		t.Errorf("backup written to %s, want %s", filepath.Dir(path), backupDir)
	}
}

func TestStore_Restore(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "good")

	s, _ := New(true, "", 0)
	good, err := s.WithClock(fixedClock("2026-10-01T00:00:00Z")).Create(target)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := os.WriteFile(target, []byte("broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	saved, err := s.WithClock(fixedClock("2026-10-02T00:00:00Z")).Restore(target, good)
	if err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "good" {
		t.Errorf("target after restore = %q, want %q", data, "good")
	}
	if saved == "" {
		t.Fatal("current file should be backed up before restore")
	}
	data, _ = os.ReadFile(saved)
	if string(data) != "broken" {
		t.Errorf("pre-restore backup = %q, want %q", data, "broken")
	}
}

func TestStore_RestoreRejectsForeignFile(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "x")
	foreign := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(foreign, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := New(true, "", 0)
	if _, err := s.Restore(target, foreign); !errors.Is(err, ErrNotBackup) {
		t.Errorf("Restore error = %v, want ErrNotBackup", err)
	}
}

func TestStore_GetStats(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "12345")

	s, _ := New(true, "", 0)
	for _, ts := range []string{"2026-10-01T00:00:00Z", "2026-10-03T00:00:00Z"} {
		if _, err := s.WithClock(fixedClock(ts)).Create(target); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := s.GetStats(target)
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.TotalBytes != 10 {
		t.Errorf("TotalBytes = %d, want 10", stats.TotalBytes)
	}
	if stats.Newest.Day() != 3 || stats.Oldest.Day() != 1 {
		t.Errorf("Newest/Oldest = %v/%v", stats.Newest, stats.Oldest)
	}
}

func TestStore_SharedDirectoryKeepsTargetsApart(t *testing.T) {
	terminal := writeTarget(t, t.TempDir(), `{"who":"terminal"}`)
	vscode := writeTarget(t, t.TempDir(), `{"who":"vscode"}`)
	backupDir := filepath.Join(t.TempDir(), "backups")

	s, err := New(true, backupDir, 1)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s = s.WithClock(fixedClock("2026-10-16T09:30:00Z"))
	termBackup, err := s.Create(terminal)
	if err != nil {
		t.Fatalf("Create(terminal) error: %v", err)
	}
	codeBackup, err := s.Create(vscode)
	if err != nil {
		t.Fatalf("Create(vscode) error: %v", err)
	}
	if termBackup == codeBackup {
		t.Fatalf("both targets backed up to %s", termBackup)
	}
	if _, err := os.Stat(termBackup); err != nil {
		t.Errorf("terminal backup pruned by the vscode backup: %v", err)
	}

	entries, err := s.List(terminal)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != termBackup {
		t.Errorf("List(terminal) = %+v, want only %s", entries, termBackup)
	}

	if _, err := s.Restore(terminal, codeBackup); !errors.Is(err, ErrNotBackup) {
		t.Errorf("Restore with the other file's backup: error = %v, want ErrNotBackup", err)
	}
	data, _ := os.ReadFile(terminal)
	if string(data) != `{"who":"terminal"}` {
		t.Errorf("terminal = %s after rejected restore", data)
	}
}
