package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnresolvedToken matches every *UnresolvedTokenError via errors.Is.
var ErrUnresolvedToken = errors.New("unresolved template token")

// Occurrence is one place an unresolved token appears.
type Occurrence struct {
	Name string
	Pos  Position
}

func (o Occurrence) String() string {
	if o.Pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: @%s@", o.Pos.File, o.Pos.Line, o.Pos.Column, o.Name)
	}
	return fmt.Sprintf("%d:%d: @%s@", o.Pos.Line, o.Pos.Column, o.Name)
}

// UnresolvedTokenError lists every token in a template that has no value.
type UnresolvedTokenError struct {
	File        string
	Occurrences []Occurrence
}

// Names returns the distinct unresolved names, sorted.
func (e *UnresolvedTokenError) Names() []string {
	seen := make(map[string]struct{}, len(e.Occurrences))
	var names []string
	for _, o := range e.Occurrences {
		if _, ok := seen[o.Name]; ok {
			continue
		}
		seen[o.Name] = struct{}{}
		names = append(names, o.Name)
	}
	sort.Strings(names)
	return names
}

func (e *UnresolvedTokenError) Error() string {
	var b strings.Builder
	if e.File != "" {
		fmt.Fprintf(&b, "%s: ", e.File)
	}
	fmt.Fprintf(&b, "no value for %s", strings.Join(e.Names(), ", "))
	for _, o := range e.Occurrences {
		b.WriteString("\n  ")
		b.WriteString(o.String())
	}
	return b.String()
}

// Is makes errors.Is(err, ErrUnresolvedToken) true.
func (e *UnresolvedTokenError) Is(target error) bool {
	return target == ErrUnresolvedToken
}
