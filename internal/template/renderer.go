package template

import (
	"sort"
	"strings"
)

// Output is a rendered template.
type Output struct {
	Text string
	// Unused lists mapped names that never appeared in the template, sorted.
	Unused []string
}

// RenderString replaces every @NAME@ in input with values[NAME].
//
// Every token must have a value. Tokens without one are collected and
// returned as a single *UnresolvedTokenError; no partial text is returned.
func RenderString(input, file string, values map[string]string) (Output, error) {
	tokens := NewLexer(input, file).Tokenize()

	var (
		b          strings.Builder
		unresolved []Occurrence
		used       = make(map[string]struct{}, len(values))
	)
	b.Grow(len(input))

	for _, tok := range tokens {
		switch tok.Type {
		case TokenText:
			b.WriteString(tok.Value)
		case TokenName:
			v, ok := values[tok.Value]
			if !ok {
				unresolved = append(unresolved, Occurrence{Name: tok.Value, Pos: tok.Pos})
				continue
			}
			used[tok.Value] = struct{}{}
			b.WriteString(v)
		case TokenEOF:
		}
	}

	if len(unresolved) > 0 {
		return Output{}, &UnresolvedTokenError{File: file, Occurrences: unresolved}
	}

	var unused []string
	for name := range values {
		if _, ok := used[name]; !ok {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)

	return Output{Text: b.String(), Unused: unused}, nil
}

// Names returns the distinct token names referenced by input, in order of
// first appearance.
func Names(input string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, tok := range NewLexer(input, "").Tokenize() {
		if tok.Type != TokenName {
			continue
		}
		if _, ok := seen[tok.Value]; ok {
			continue
		}
		seen[tok.Value] = struct{}{}
		names = append(names, tok.Value)
	}
	return names
}
