// Cfgmerge merges named, idempotent edits into settings files.
//
// It upserts scalars and objects at key paths, replaces named entries in
// lists (terminal profiles, launch configurations), and installs named
// blocks into shell rc files. Every write is preceded by a timestamped
// backup and goes through a temporary file and a rename, and running the
// same edits a second time changes nothing.
//
// Usage:
//
//	cfgmerge apply --recipe terminal.yaml          # apply a recipe to its target
//	cfgmerge apply -r r.yaml -f settings.json --dry-run
//	cfgmerge rc install -f ~/.bashrc --name prompt --from prompt.sh
//	cfgmerge rc remove -f ~/.bashrc --name prompt
//	cfgmerge backup list -f settings.json          # newest first
//	cfgmerge backup restore -f settings.json --backup <path>
package main
