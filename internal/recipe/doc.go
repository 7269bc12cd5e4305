// Package recipe reads edit batches from YAML or JSON files.
//
// A recipe names an optional target file and format and lists its edits in
// the order they are applied:
//
//	target: ~/.config/terminal/settings.json
//	format: jsonc
//	edits:
//	  - name: ubuntu-tab-color
//	    kind: UpsertIntoNamedList
//	    path: [profiles, list]
//	    value: {name: Ubuntu, tabColor: "#00F6FF"}
//
// A path may also be written as a dotted string ("profiles.defaults").
// The dotted form splits on every dot, so keys that contain one, such as
// VS Code's "editor.fontSize", need the list form: path: [editor.fontSize].
// Values keep the key order written in the recipe.
package recipe
