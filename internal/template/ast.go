// Package template substitutes @NAME@ tokens in build templates.
//
// A template is plain text. Any run of the form @NAME@, where NAME starts with
// a letter or underscore and continues with letters, digits or underscores, is
// a token; everything else, including a lone '@', is literal text. Values are
// inserted verbatim with no quoting or escaping.
package template

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// Delimiter wraps every token name.
const Delimiter = '@'
