// Package backup keeps timestamped copies of settings files taken before
// cfgmerge rewrites them.
//
// A backup of /path/settings.json is written as
// settings.json.<UTC timestamp>.backup, next to the original unless a
// backup directory is configured. Backups are created with O_EXCL so an
// earlier copy is never overwritten; two backups in the same second get a
// -N suffix. The store can list, prune and restore backups for a target.
package backup
