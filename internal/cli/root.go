package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/cfgmerge/internal/merge"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess        = 0
	ExitChangesPending = 1
	ExitUsageError     = 2
	ExitPathError      = 3
	ExitRuntimeError   = 4
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "cfgmerge",
	Short: "Merge named edits into settings files, safely and idempotently",
	Long: "cfgmerge applies named edits to JSON, JSONC and YAML settings files and " +
		"named blocks to shell rc files. Files are backed up before they change and " +
		"rewritten atomically; running the same edits again changes nothing.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(rcCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// logger receives progress messages; stderr, level from --verbose or the
// logLevel config key.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupLogger(level string) {
	if flagVerbose {
		level = "debug"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelWarn
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, merge.ErrPath), errors.Is(err, merge.ErrValidation):
		return ExitPathError
	default:
		return ExitRuntimeError
	}
}

// fail reports err on stderr and returns its exit code.
func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitCodeFor(err)
}

// usage reports a usage problem on stderr.
func usage(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return ExitUsageError
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print cfgmerge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "cfgmerge version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log progress to stderr")
}
