package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/cfgmerge/internal/config"
)

var flagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cfgmerge configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runConfigInit()
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a value in the configuration file. Keys: " + strings.Join(config.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runConfigSet(args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration (file, environment and defaults)",
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runConfigShow()
		return nil
	},
}

func runConfigInit() int {
	path, err := config.ConfigPath()
	if err != nil {
		return fail(err)
	}
	if _, err := os.Stat(path); err == nil && !flagForce {
		fmt.Fprintf(os.Stderr, "Config file already exists at %s (use --force to overwrite)\n", path)
		return ExitSuccess
	}
	if err := config.Save(config.Default()); err != nil {
		return fail(fmt.Errorf("writing config: %w", err))
	}
	fmt.Fprintf(os.Stdout, "Config file created at %s\n", path)
	return ExitSuccess
}

func runConfigSet(key, value string) int {
	cfg, err := config.LoadFile()
	if err != nil {
		return fail(err)
	}
	old, err := config.Field(cfg, key)
	if err != nil {
		return usage("%v (valid keys: %s)", err, strings.Join(config.Keys(), ", "))
	}
	if err := config.SetField(&cfg, key, value); err != nil {
		return usage("%v", err)
	}
	if err := config.Save(cfg); err != nil {
		return fail(fmt.Errorf("saving config: %w", err))
	}
	current, _ := config.Field(cfg, key)
	if current == old {
		fmt.Fprintf(os.Stdout, "%s already %s\n", key, current)
		return ExitSuccess
	}
	fmt.Fprintf(os.Stdout, "Set %s = %s (was %q)\n", key, current, old)
	return ExitSuccess
}

func runConfigShow() int {
	cfg, err := config.Load(nil)
	if err != nil {
		return fail(err)
	}
	if flagOutput == "json" {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fail(err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return ExitSuccess
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, key := range config.Keys() {
		v, _ := config.Field(cfg, key)
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", key, v)
	}
	if err := tw.Flush(); err != nil {
		return fail(err)
	}
	return ExitSuccess
}

func init() {
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing config file")
	configShowCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text, json)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}
