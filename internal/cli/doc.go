// Package cli wires together the Cobra command tree for the cfgmerge binary.
//
// It defines the root command and all subcommands (apply, rc, backup,
// config, version), binds flags, reads configuration, runs the merger or
// the rc block editor, prints a report and returns deterministic exit codes:
// 0 success, 1 changes pending under --check, 2 usage, 3 unresolvable path
// or invalid edit, 4 runtime failure.
package cli
