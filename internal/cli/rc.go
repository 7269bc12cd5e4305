package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/cfgmerge/internal/output"
	"github.com/dshills/cfgmerge/internal/rcfile"
)

var (
	flagBlockName string
	flagContent   string
	flagFrom      string
	flagComment   string
)

var rcCmd = &cobra.Command{
	Use:   "rc",
	Short: "Manage named blocks in shell rc files",
}

var rcInstallCmd = &cobra.Command{
	Use:     "install",
	Short:   "Install or update a named block",
	Example: `  cfgmerge rc install -f ~/.bashrc --name prompt --content 'eval "$(starship init bash)"'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runRCInstall()
		return nil
	},
}

var rcRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a named block",
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runRCRemove()
		return nil
	},
}

func runRCInstall() int {
	path, err := targetPath()
	if err != nil {
		return usage("%v", err)
	}
	if flagBlockName == "" {
		return usage("--name is required")
	}
	body, err := blockBody()
	if err != nil {
		return usage("%v", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return usage("%v", err)
	}
	store, err := openBackupStore(cfg)
	if err != nil {
		return fail(err)
	}

	block := rcfile.Block{Name: flagBlockName, Body: body, Comment: cfg.Comment}
	res, err := rcfile.InstallFile(path, block, rcfile.FileOptions{
		Backups: store,
		DryRun:  flagDryRun || flagCheck,
	})
	if err != nil {
		return fail(err)
	}
	logger.Info("rc block installed", "path", path, "block", flagBlockName, "changed", res.Changed)
	return writeRCReport("rc install", res, cfg.Output, diffOptions(cfg))
}

func runRCRemove() int {
	path, err := targetPath()
	if err != nil {
		return usage("%v", err)
	}
	if flagBlockName == "" {
		return usage("--name is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return usage("%v", err)
	}
	store, err := openBackupStore(cfg)
	if err != nil {
		return fail(err)
	}

	res, err := rcfile.RemoveFile(path, flagBlockName, cfg.Comment, rcfile.FileOptions{
		Backups: store,
		DryRun:  flagDryRun || flagCheck,
	})
	if err != nil {
		return fail(err)
	}
	logger.Info("rc block removed", "path", path, "block", flagBlockName, "changed", res.Changed)
	return writeRCReport("rc remove", res, cfg.Output, diffOptions(cfg))
}

func writeRCReport(action string, res *rcfile.Result, format string, opts output.DiffOptions) int {
	report, err := output.FromRC(action, res, opts)
	if err != nil {
		return fail(err)
	}
	if err := output.WriteReport(report, format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		return ExitRuntimeError
	}
	if flagCheck && res.Changed {
		return ExitChangesPending
	}
	return ExitSuccess
}

// blockBody returns the block text from exactly one of --content or --from.
func blockBody() (string, error) {
	switch {
	case flagContent != "" && flagFrom != "":
		return "", fmt.Errorf("--content and --from are mutually exclusive")
	case flagFrom != "":
		data, err := os.ReadFile(flagFrom)
		if err != nil {
			return "", fmt.Errorf("reading block content: %w", err)
		}
		return string(data), nil
	case flagContent != "":
		return flagContent, nil
	default:
		return "", fmt.Errorf("one of --content or --from is required")
	}
}

func init() {
	rcCmd.AddCommand(rcInstallCmd)
	rcCmd.AddCommand(rcRemoveCmd)

	for _, cmd := range []*cobra.Command{rcInstallCmd, rcRemoveCmd} {
		fs := cmd.Flags()
		addFileFlag(fs)
		addWriteFlags(fs)
		fs.StringVar(&flagBlockName, "name", "", "Block name")
		fs.StringVar(&flagComment, "comment", "", "Comment prefix of the file (default: #)")
	}
	rcInstallCmd.Flags().StringVar(&flagContent, "content", "", "Block content")
	rcInstallCmd.Flags().StringVar(&flagFrom, "from", "", "Read block content from a file")
}
