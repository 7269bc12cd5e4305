package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/cfgmerge/internal/backup"
	"github.com/dshills/cfgmerge/internal/config"
	"github.com/dshills/cfgmerge/internal/recipe"
)

var (
	flagKeep       int
	flagBackupPath string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "List, prune and restore settings file backups",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups of a file, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runBackupList()
		return nil
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest backups of a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		keepSet := cmd.Flags().Changed("keep")
		exitCode = runBackupPrune(keepSet)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace a file with one of its backups",
	Long:  "Restore backs up the current file first, so a restore can itself be undone.",
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runBackupRestore()
		return nil
	},
}

// openStoreForTarget always opens an enabled store: listing and restoring
// work even when new backups are turned off.
func openStoreForTarget() (string, *backup.Store, config.Config, int) {
	path, err := targetPath()
	if err != nil {
		return "", nil, config.Config{}, usage("%v", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", nil, config.Config{}, usage("%v", err)
	}
	dir, err := recipe.ExpandHome(cfg.Backup.Dir)
	if err != nil {
		return "", nil, cfg, fail(err)
	}
	store, err := backup.New(true, dir, cfg.Backup.Keep)
	if err != nil {
		return "", nil, cfg, fail(err)
	}
	return path, store, cfg, ExitSuccess
}

func runBackupList() int {
	path, store, cfg, code := openStoreForTarget()
	if code != ExitSuccess {
		return code
	}
	entries, err := store.List(path)
	if err != nil {
		return fail(err)
	}
	stats, err := store.GetStats(path)
	if err != nil {
		return fail(err)
	}
	if err := writeBackupList(os.Stdout, cfg.Output, stats, entries); err != nil {
		return fail(err)
	}
	return ExitSuccess
}

// backupListing is the JSON shape of `backup list`.
type backupListing struct {
	Stats   backup.Stats   `json:"stats"`
	Backups []backup.Entry `json:"backups"`
}

func writeBackupList(w io.Writer, format string, stats backup.Stats, entries []backup.Entry) error {
	if format == "json" {
		if entries == nil {
			entries = []backup.Entry{}
		}
		data, err := json.MarshalIndent(backupListing{Stats: stats, Backups: entries}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "No backups of %s.\n", stats.Target)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSIZE\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.Size, e.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d backup(s), %d bytes in %s (oldest %s)\n",
		stats.Entries, stats.TotalBytes, stats.Dir, stats.Oldest.Local().Format(time.DateTime))
	return err
}

func runBackupPrune(keepSet bool) int {
	path, store, cfg, code := openStoreForTarget()
	if code != ExitSuccess {
		return code
	}
	keep := cfg.Backup.Keep
	if keepSet {
		keep = flagKeep
	}
	if keep < 0 {
		return usage("--keep must not be negative")
	}
	removed, err := store.Prune(path, keep)
	if err != nil {
		return fail(err)
	}
	logger.Info("backups pruned", "path", path, "keep", keep, "removed", removed)
	fmt.Fprintf(os.Stdout, "Removed %d backup(s) of %s, kept the newest %d.\n", removed, path, keep)
	return ExitSuccess
}

func runBackupRestore() int {
	if flagBackupPath == "" {
		return usage("--backup is required")
	}
	path, store, _, code := openStoreForTarget()
	if code != ExitSuccess {
		return code
	}
	src, err := recipe.ExpandHome(flagBackupPath)
	if err != nil {
		return fail(err)
	}
	saved, err := store.Restore(path, src)
	if err != nil {
		return fail(err)
	}
	logger.Info("backup restored", "path", path, "from", src, "previous", saved)
	fmt.Fprintf(os.Stdout, "Restored %s from %s\n", path, src)
	if saved != "" {
		fmt.Fprintf(os.Stdout, "Previous version saved as %s\n", saved)
	}
	return ExitSuccess
}

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupPruneCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	for _, cmd := range []*cobra.Command{backupListCmd, backupPruneCmd, backupRestoreCmd} {
		addFileFlag(cmd.Flags())
	}
	backupListCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text, json)")
	backupPruneCmd.Flags().IntVar(&flagKeep, "keep", 0, "Number of backups to keep (default: backup.keep from config)")
	backupRestoreCmd.Flags().StringVar(&flagBackupPath, "backup", "", "Backup file to restore")
}
