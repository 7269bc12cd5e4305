package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Output != "text" {
		t.Errorf("Default output = %q, want %q", cfg.Output, "text")
	}
	if cfg.Format != "" {
		t.Errorf("Default format = %q, want empty (detect)", cfg.Format)
	}
	if cfg.Comment != "#" {
		t.Errorf("Default comment = %q, want %q", cfg.Comment, "#")
	}
	if !cfg.Backup.Enabled {
		t.Error("Default backup.enabled should be true")
	}
	if cfg.Backup.Keep != 10 {
		t.Errorf("Default backup.keep = %d, want 10", cfg.Backup.Keep)
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("Default redactSecrets should be true")
	}
}

func TestIndentString(t *testing.T) {
	cfg := Default()
	if got := cfg.IndentString(); got != "" {
		t.Errorf("IndentString() = %q, want empty", got)
	}
	cfg.Indent = 4
	if got := cfg.IndentString(); got != "    " {
		t.Errorf("IndentString() = %q, want 4 spaces", got)
	}
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("CFGMERGE_FORMAT", "yaml")
	t.Setenv("CFGMERGE_OUTPUT", "json")
	t.Setenv("CFGMERGE_INDENT", "4")
	t.Setenv("CFGMERGE_BACKUP", "false")
	t.Setenv("CFGMERGE_BACKUP_KEEP", "3")
	t.Setenv("CFGMERGE_LOG_LEVEL", "DEBUG")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}

	if cfg.Format != "yaml" {
		t.Errorf("Format = %q, want %q", cfg.Format, "yaml")
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want %q", cfg.Output, "json")
	}
	if cfg.Indent != 4 {
		t.Errorf("Indent = %d, want 4", cfg.Indent)
	}
	if cfg.Backup.Enabled {
		t.Error("Backup.Enabled = true, want false")
	}
	if cfg.Backup.Keep != 3 {
		t.Errorf("Backup.Keep = %d, want 3", cfg.Backup.Keep)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestMergeEnv_Invalid(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"CFGMERGE_BACKUP_KEEP", "notanumber"},
		{"CFGMERGE_INDENT", "abc"},
		{"CFGMERGE_BACKUP", "maybe"},
		{"CFGMERGE_FORMAT", "toml"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			cfg := Default()
			if err := mergeEnv(&cfg); err == nil {
				t.Errorf("Expected error for invalid %s", tt.env)
			}
		})
	}
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	overrides := map[string]string{
		"format":      "jsonc",
		"output":      "markdown",
		"backup.keep": "0",
		"comment":     "",
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		t.Fatalf("mergeOverrides error: %v", err)
	}

	if cfg.Format != "jsonc" {
		t.Errorf("Format = %q, want %q", cfg.Format, "jsonc")
	}
	if cfg.Output != "markdown" {
		t.Errorf("Output = %q, want %q", cfg.Output, "markdown")
	}
	if cfg.Backup.Keep != 0 {
		t.Errorf("Backup.Keep = %d, want 0", cfg.Backup.Keep)
	}
	if cfg.Comment != "#" {
		t.Errorf("empty override changed Comment to %q", cfg.Comment)
	}
}

func TestMergeOverrides_Nil(t *testing.T) {
	cfg := Default()
	if err := mergeOverrides(&cfg, nil); err != nil {
		t.Fatalf("mergeOverrides error: %v", err)
	}
	if cfg.Output != "text" {
		t.Errorf("Output changed with nil overrides")
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()

	tests := []struct {
		key   string
		value string
	}{
		{"format", "yml"},
		{"output", "json"},
		{"indent", "2"},
		{"comment", "REM"},
		{"logLevel", "info"},
		{"backup.enabled", "false"},
		{"backup.dir", "/tmp/backups"},
		{"backup.keep", "5"},
		{"privacy.redactSecrets", "false"},
		{"privacy.redactKeys", "apiKey, sessionId"},
	}

	for _, tt := range tests {
		if err := SetField(&cfg, tt.key, tt.value); err != nil {
			t.Errorf("SetField(%q, %q) error: %v", tt.key, tt.value, err)
		}
	}

	if cfg.Format != "yaml" {
		t.Errorf("Format = %q, want %q", cfg.Format, "yaml")
	}
	if cfg.Comment != "REM" {
		t.Errorf("Comment = %q, want %q", cfg.Comment, "REM")
	}
	if cfg.Backup.Dir != "/tmp/backups" {
		t.Errorf("Backup.Dir = %q, want %q", cfg.Backup.Dir, "/tmp/backups")
	}
	if cfg.Backup.Keep != 5 {
		t.Errorf("Backup.Keep = %d, want 5", cfg.Backup.Keep)
	}
	if len(cfg.Privacy.RedactKeys) != 2 || cfg.Privacy.RedactKeys[1] != "sessionId" {
		t.Errorf("RedactKeys = %v", cfg.Privacy.RedactKeys)
	}
}

func TestSetField_Errors(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"nonexistent", "value"},
		{"output", "sarif"},
		{"indent", "-1"},
		{"indent", "12"},
		{"backup.keep", "-3"},
		{"comment", " "},
		{"logLevel", "trace"},
	}
	for _, tt := range tests {
		cfg := Default()
		if err := SetField(&cfg, tt.key, tt.value); err == nil {
			t.Errorf("SetField(%q, %q): expected error", tt.key, tt.value)
		}
	}
}

func TestSetField_AllKeysAccepted(t *testing.T) {
	for _, key := range Keys() {
		cfg := Default()
		err := SetField(&cfg, key, "")
		if err != nil && err.Error() == "unknown config key: "+key {
			t.Errorf("Keys() lists %q but SetField rejects it", key)
		}
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if want := filepath.Join("/tmp/xdg-test", "cfgmerge"); dir != want {
		t.Errorf("ConfigDir = %q, want %q", dir, want)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	if want := filepath.Join("/tmp/xdg-test", "cfgmerge", "config.json"); path != want {
		t.Errorf("ConfigPath = %q, want %q", path, want)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Output = "json"
	cfg.Backup.Enabled = false
	cfg.Backup.Keep = 3

	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Output != "json" {
		t.Errorf("Output = %q, want %q", loaded.Output, "json")
	}
	if loaded.Backup.Enabled {
		t.Error("Backup.Enabled should stay false after a round trip")
	}
	if loaded.Backup.Keep != 3 {
		t.Errorf("Backup.Keep = %d, want 3", loaded.Backup.Keep)
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Output != "text" || !cfg.Backup.Enabled {
		t.Errorf("missing file should give defaults, got %+v", cfg)
	}
}

func TestLoadFile_PartialWithComments(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "cfgmerge", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := `{
  // only override what differs
  "backup": {"keep": 2,},
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Backup.Keep != 2 {
		t.Errorf("Backup.Keep = %d, want 2", cfg.Backup.Keep)
	}
	if !cfg.Backup.Enabled {
		t.Error("Backup.Enabled should keep its default when the file omits it")
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("RedactSecrets should keep its default when the file omits it")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "cfgmerge", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"output": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(); err == nil {
		t.Error("Expected error for malformed config file")
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Output = "markdown"
	cfg.Backup.Keep = 7
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CFGMERGE_OUTPUT", "json")

	got, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Output != "json" {
		t.Errorf("After env merge, Output = %q, want %q", got.Output, "json")
	}
	if got.Backup.Keep != 7 {
		t.Errorf("Backup.Keep = %d, want 7 (from file)", got.Backup.Keep)
	}

	got, err = Load(map[string]string{"output": "text"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Output != "text" {
		t.Errorf("After override, Output = %q, want %q", got.Output, "text")
	}
}

func TestLoad_BadOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(map[string]string{"indent": "wide"}); err == nil {
		t.Error("Expected error for invalid override")
	}
}

func TestField_RoundTripsSetField(t *testing.T) {
	cfg := Default()
	values := map[string]string{
		"format":                "yaml",
		"output":                "json",
		"indent":                "4",
		"comment":               ";",
		"logLevel":              "debug",
		"backup.enabled":        "false",
		"backup.dir":            "/tmp/b",
		"backup.keep":           "2",
		"privacy.redactSecrets": "false",
		"privacy.redactKeys":    "token,password",
	}
	for key, v := range values {
		if err := SetField(&cfg, key, v); err != nil {
			t.Fatalf("SetField(%q) error: %v", key, err)
		}
		got, err := Field(cfg, key)
		if err != nil {
			t.Fatalf("Field(%q) error: %v", key, err)
		}
		if got != v {
			t.Errorf("Field(%q) = %q, want %q", key, got, v)
		}
	}
	if _, err := Field(cfg, "nope"); err == nil {
		t.Error("Field(nope) should fail")
	}
}
