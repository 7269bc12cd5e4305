// Package config loads and merges cfgmerge configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CFGMERGE_OUTPUT, CFGMERGE_BACKUP_KEEP, etc.)
//  3. Config file ($XDG_CONFIG_HOME/cfgmerge/config.json, comments allowed)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write one back, and
// [SetField] to update a single key by name.
package config
