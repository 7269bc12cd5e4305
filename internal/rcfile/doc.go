// Package rcfile manages named, marker-delimited blocks in line-oriented
// configuration files such as .bashrc, .zshrc or PowerShell profiles.
//
// A block named "prompt" with the default "#" comment prefix looks like:
//
//	# >>> cfgmerge:prompt >>>
//	eval "$(starship init bash)"
//	# <<< cfgmerge:prompt <<<
//
// Installing a block whose markers are already present replaces the lines
// between them in place; everything outside the markers is left alone. A
// file whose markers for the block do not pair up is never rewritten.
package rcfile
