// Package document holds the in-memory settings tree that cfgmerge edits.
//
// A [Node] is a tagged union of three shapes: a mapping with ordered string
// keys, a sequence, or a scalar (string, number, bool or null). Mapping key
// order is kept from the source document and new keys are appended, so a
// document that is parsed and re-encoded without edits keeps its layout
// apart from whitespace.
//
// Three formats are supported:
//   - json: JSON; comments and trailing commas are tolerated on input
//   - jsonc: JSON with comments and trailing commas (Windows Terminal, VS Code);
//     comments are dropped on output
//   - yaml: YAML 1.2 block documents
//
// Use [Parse] and [Marshal] to move between bytes and trees, [Clone] to copy
// a tree, and [Equal] to compare two trees semantically.
package document
