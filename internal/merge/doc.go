// Package merge applies named, idempotent edits to settings documents and
// writes the result back safely.
//
// A batch is an ordered slice of [EditOperation]. Each operation targets a
// path of keys (or list indices) and has one of three kinds:
//   - UpsertScalar and UpsertObject set the value at the final key
//   - UpsertIntoNamedList: in the list at the path, drop every element
//     whose "name" equals the payload's, then append the payload
//
// Missing intermediate keys are created as empty mappings; lists are never
// created implicitly except for the final list of an UpsertIntoNamedList.
// [Apply] works on a copy, so a batch that fails half way leaves the input
// untouched.
//
// [Merger] adds the file contract: [Merger.Load], [Merger.Backup],
// [Merger.Save] and the combined [Merger.Merge], which skips the backup and
// the write entirely when the batch changes nothing. Saves go through a
// temporary file and a rename, so a crash never leaves a truncated file.
//
// Errors wrap one of ErrNotFound, ErrParse, ErrPath, ErrIO or
// ErrValidation.
package merge
