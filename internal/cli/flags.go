package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dshills/cfgmerge/internal/backup"
	"github.com/dshills/cfgmerge/internal/config"
	"github.com/dshills/cfgmerge/internal/output"
	"github.com/dshills/cfgmerge/internal/recipe"
)

// Flags shared by the commands that change a file.
var (
	flagFile     string
	flagDryRun   bool
	flagCheck    bool
	flagNoBackup bool
	flagOutput   string
	flagOut      string
	flagNoRedact bool
)

func addFileFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&flagFile, "file", "f", "", "Target file")
}

func addWriteFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&flagDryRun, "dry-run", false, "Show what would change without writing")
	fs.BoolVar(&flagCheck, "check", false, "Exit 1 when the file would change (implies --dry-run)")
	fs.BoolVar(&flagNoBackup, "no-backup", false, "Do not back up the file before writing")
	fs.StringVarP(&flagOutput, "output", "o", "", "Report format (text, json, markdown)")
	fs.StringVar(&flagOut, "out", "", "Report file path (default: stdout)")
	fs.BoolVar(&flagNoRedact, "no-redact", false, "Show secrets in diffs (use with caution)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagOutput != "" {
		m["output"] = flagOutput
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagIndent > 0 {
		m["indent"] = fmt.Sprintf("%d", flagIndent)
	}
	if flagComment != "" {
		m["comment"] = flagComment
	}
	return m
}

// loadConfig loads the effective config and sets up logging from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return config.Config{}, err
	}
	setupLogger(cfg.LogLevel)
	return cfg, nil
}

func openBackupStore(cfg config.Config) (*backup.Store, error) {
	dir, err := recipe.ExpandHome(cfg.Backup.Dir)
	if err != nil {
		return nil, err
	}
	s, err := backup.New(cfg.Backup.Enabled && !flagNoBackup, dir, cfg.Backup.Keep)
	if err != nil {
		return nil, fmt.Errorf("opening backup store: %w", err)
	}
	return s, nil
}

func diffOptions(cfg config.Config) output.DiffOptions {
	return output.DiffOptions{
		Include: flagDryRun || flagCheck || flagVerbose,
		Redact:  cfg.Privacy.RedactSecrets && !flagNoRedact,
		Keys:    cfg.Privacy.RedactKeys,
	}
}

func targetPath() (string, error) {
	if strings.TrimSpace(flagFile) == "" {
		return "", fmt.Errorf("--file is required")
	}
	return recipe.ExpandHome(flagFile)
}
