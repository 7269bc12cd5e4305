// Package fsutil holds the file primitives shared by every writer in
// cfgmerge: atomic replacement of a file's contents and reading a file
// together with its permission bits.
//
// [WriteFileAtomic] writes to a temporary file in the target's directory,
// syncs and closes it, then renames it over the target. A failure at any
// step removes the temporary file and leaves the target untouched.
package fsutil
