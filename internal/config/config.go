package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/dshills/cfgmerge/internal/document"
	"github.com/dshills/cfgmerge/internal/fsutil"
)

// Config represents the cfgmerge configuration.
type Config struct {
	// Format forces the settings document format; empty detects it from
	// the file extension.
	Format string `json:"format,omitempty"`
	Output string `json:"output"`
	// Indent is the number of spaces used when rewriting a document; 0
	// reuses the indentation found in the file.
	Indent   int           `json:"indent"`
	Comment  string        `json:"comment"`
	LogLevel string        `json:"logLevel"`
	Backup   BackupConfig  `json:"backup"`
	Privacy  PrivacyConfig `json:"privacy"`
}

// BackupConfig controls backups taken before a file is rewritten.
type BackupConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir,omitempty"`
	Keep    int    `json:"keep"`
}

// PrivacyConfig controls redaction of printed diffs.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactKeys    []string `json:"redactKeys,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Output:   "text",
		Comment:  "#",
		LogLevel: "warn",
		Backup: BackupConfig{
			Enabled: true,
			Keep:    10,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
	}
}

// IndentString returns the configured indentation, or "" to detect it.
func (c Config) IndentString() string {
	if c.Indent <= 0 {
		return ""
	}
	return strings.Repeat(" ", c.Indent)
}

// ConfigDir returns the platform-appropriate config directory for cfgmerge.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cfgmerge"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "cfgmerge"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "cfgmerge"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "cfgmerge"), nil
	default:
		return filepath.Join(home, ".config", "cfgmerge"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile returns the defaults overlaid with the config file. Fields the
// file leaves out keep their default, including booleans. A missing file
// yields the defaults. Comments and trailing commas are accepted.
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return fsutil.WriteFileAtomic(path, append(data, '\n'), fsutil.DefaultPerm)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables to config keys.
var envKeys = []struct {
	env string
	key string
}{
	{"CFGMERGE_FORMAT", "format"},
	{"CFGMERGE_OUTPUT", "output"},
	{"CFGMERGE_INDENT", "indent"},
	{"CFGMERGE_COMMENT", "comment"},
	{"CFGMERGE_LOG_LEVEL", "logLevel"},
	{"CFGMERGE_BACKUP", "backup.enabled"},
	{"CFGMERGE_BACKUP_DIR", "backup.dir"},
	{"CFGMERGE_BACKUP_KEEP", "backup.keep"},
	{"CFGMERGE_REDACT", "privacy.redactSecrets"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists the names accepted by SetField.
func Keys() []string {
	return []string{
		"format", "output", "indent", "comment", "logLevel",
		"backup.enabled", "backup.dir", "backup.keep",
		"privacy.redactSecrets", "privacy.redactKeys",
	}
}

// SetField sets a single config field by key name. Returns error if key is
// unknown or the value does not fit it.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		f, err := document.ParseFormat(value)
		if err != nil {
			return err
		}
		cfg.Format = string(f)
	case "output":
		switch value {
		case "text", "json", "markdown":
			cfg.Output = value
		default:
			return fmt.Errorf("output must be text, json or markdown, got %q", value)
		}
	case "indent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("indent must be an integer: %w", err)
		}
		if n < 0 || n > 8 {
			return fmt.Errorf("indent must be between 0 and 8, got %d", n)
		}
		cfg.Indent = n
	case "comment":
		if strings.TrimSpace(value) == "" || strings.ContainsAny(value, "\r\n") {
			return fmt.Errorf("comment must be a non-empty single line, got %q", value)
		}
		cfg.Comment = value
	case "logLevel":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("logLevel must be debug, info, warn or error, got %q", value)
		}
	case "backup.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("backup.enabled must be a boolean: %w", err)
		}
		cfg.Backup.Enabled = b
	case "backup.dir":
		cfg.Backup.Dir = value
	case "backup.keep":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("backup.keep must be an integer: %w", err)
		}
		if n < 0 {
			return fmt.Errorf("backup.keep must not be negative, got %d", n)
		}
		cfg.Backup.Keep = n
	case "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("privacy.redactSecrets must be a boolean: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	case "privacy.redactKeys":
		cfg.Privacy.RedactKeys = splitList(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Field returns the value of a single config field in the form SetField
// accepts.
func Field(cfg Config, key string) (string, error) {
	switch key {
	case "format":
		return cfg.Format, nil
	case "output":
		return cfg.Output, nil
	case "indent":
		return strconv.Itoa(cfg.Indent), nil
	case "comment":
		return cfg.Comment, nil
	case "logLevel":
		return cfg.LogLevel, nil
	case "backup.enabled":
		return strconv.FormatBool(cfg.Backup.Enabled), nil
	case "backup.dir":
		return cfg.Backup.Dir, nil
	case "backup.keep":
		return strconv.Itoa(cfg.Backup.Keep), nil
	case "privacy.redactSecrets":
		return strconv.FormatBool(cfg.Privacy.RedactSecrets), nil
	case "privacy.redactKeys":
		return strings.Join(cfg.Privacy.RedactKeys, ","), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
