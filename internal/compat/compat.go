// Package compat rejects option combinations the solver cannot build.
package compat

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/selection"
)

// ErrIncompatibleOptions matches every *IncompatibleOptionsError via errors.Is.
var ErrIncompatibleOptions = errors.New("incompatible options")

// IncompatibleOptionsError names the two settings that conflict.
type IncompatibleOptionsError struct {
	Left   string // e.g. "eos=isothermal"
	Right  string // e.g. "flux=hllc"
	Reason string
}

func (e *IncompatibleOptionsError) Error() string {
	return fmt.Sprintf("%s (%s with %s)", e.Reason, e.Left, e.Right)
}

// Is makes errors.Is(err, ErrIncompatibleOptions) true.
func (e *IncompatibleOptionsError) Is(target error) bool {
	return target == ErrIncompatibleOptions
}

// Rule is one forbidden pairing.
type Rule struct {
	Left    string
	Right   string
	Reason  string
	Matches func(selection.Selection) bool
}

// rules is checked in order; the first match wins.
var rules = []Rule{
	{
		Left:   catalog.EOS + "=" + catalog.EOSIsothermal,
		Right:  catalog.Flux + "=" + catalog.FluxHLLC,
		Reason: "isothermal EOS cannot be used with HLLC flux",
		Matches: func(s selection.Selection) bool {
			return s.EOS == catalog.EOSIsothermal && s.Flux == catalog.FluxHLLC
		},
	},
	{
		Left:   catalog.Flux + "=" + catalog.FluxHLLC,
		Right:  catalog.Magnetic,
		Reason: "HLLC flux cannot be used with MHD",
		Matches: func(s selection.Selection) bool {
			return s.Flux == catalog.FluxHLLC && s.Magnetic
		},
	},
}

// Rules returns the forbidden pairings in check order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Validate returns an *IncompatibleOptionsError for the first forbidden
// pairing sel contains, or nil.
func Validate(sel selection.Selection) error {
	for _, r := range rules {
		if r.Matches(sel) {
			return &IncompatibleOptionsError{Left: r.Left, Right: r.Right, Reason: r.Reason}
		}
	}
	return nil
}
