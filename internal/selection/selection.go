// Package selection resolves raw option values against the catalog into a
// fully populated, validated Selection.
package selection

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/athconf/internal/catalog"
)

// Raw maps option names to the textual values supplied by the user.
// Options that are absent take their catalog default.
type Raw map[string]string

// Selection is the resolved value of every catalog option.
// It is a plain value; copies never share state.
type Selection struct {
	Problem     string
	Coordinates string
	EOS         string
	Flux        string
	Order       string
	Integrator  string
	Compiler    string

	Magnetic  bool
	Special   bool
	General   bool
	Transform bool
	MPI       bool
	OpenMP    bool
	Debug     bool

	IFOV     int
	IDLength int
}

// Adiabatic reports whether the equation of state carries an energy equation.
func (s Selection) Adiabatic() bool {
	return s.EOS == catalog.EOSAdiabatic
}

// Relativistic reports whether either relativity mode is on.
func (s Selection) Relativistic() bool {
	return s.Special || s.General
}

// MaxRefinementLevel is the deepest refinement the block UID length can encode.
func (s Selection) MaxRefinementLevel() int {
	return 20 * s.IDLength
}

// Value returns the textual form of the named option.
func (s Selection) Value(name string) (string, bool) {
	switch name {
	case catalog.Problem:
		return s.Problem, true
	case catalog.Coordinates:
		return s.Coordinates, true
	case catalog.EOS:
		return s.EOS, true
	case catalog.Flux:
		return s.Flux, true
	case catalog.Order:
		return s.Order, true
	case catalog.Integrator:
		return s.Integrator, true
	case catalog.Compiler:
		return s.Compiler, true
	case catalog.Magnetic:
		return strconv.FormatBool(s.Magnetic), true
	case catalog.Special:
		return strconv.FormatBool(s.Special), true
	case catalog.General:
		return strconv.FormatBool(s.General), true
	case catalog.Transform:
		return strconv.FormatBool(s.Transform), true
	case catalog.MPI:
		return strconv.FormatBool(s.MPI), true
	case catalog.OpenMP:
		return strconv.FormatBool(s.OpenMP), true
	case catalog.Debug:
		return strconv.FormatBool(s.Debug), true
	case catalog.IFOV:
		return strconv.Itoa(s.IFOV), true
	case catalog.IDLength:
		return strconv.Itoa(s.IDLength), true
	default:
		return "", false
	}
}

// Resolve validates raw against cat and fills in defaults.
//
// Unknown option names and values outside an option's allowed set fail with
// an *UnrecognizedOptionError. Defaults are checked the same way, so a missing
// default problem generator is reported rather than passed through.
func Resolve(ctx context.Context, cat *catalog.Catalog, raw Raw) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}

	// Reject unknown names first, in a stable order.
	var unknown []string
	for name := range raw {
		if _, ok := cat.Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return Selection{}, &UnrecognizedOptionError{Option: unknown[0], Value: raw[unknown[0]], Unknown: true}
	}

	var (
		sel      Selection
		strs     = map[string]*string{}
		bools    = map[string]*bool{}
		integers = map[string]*int{}
	)
	strs[catalog.Problem] = &sel.Problem
	strs[catalog.Coordinates] = &sel.Coordinates
	strs[catalog.EOS] = &sel.EOS
	strs[catalog.Flux] = &sel.Flux
	strs[catalog.Order] = &sel.Order
	strs[catalog.Integrator] = &sel.Integrator
	strs[catalog.Compiler] = &sel.Compiler
	bools[catalog.Magnetic] = &sel.Magnetic
	bools[catalog.Special] = &sel.Special
	bools[catalog.General] = &sel.General
	bools[catalog.Transform] = &sel.Transform
	bools[catalog.MPI] = &sel.MPI
	bools[catalog.OpenMP] = &sel.OpenMP
	bools[catalog.Debug] = &sel.Debug
	integers[catalog.IFOV] = &sel.IFOV
	integers[catalog.IDLength] = &sel.IDLength

	for _, opt := range cat.Options() {
		value, given := raw[opt.Name]
		if !given {
			value = opt.Default
		}

		switch opt.Kind {
		case catalog.KindEnum:
			dst, ok := strs[opt.Name]
			if !ok {
				return Selection{}, fmt.Errorf("selection: no field for option %q", opt.Name)
			}
			if !opt.Allows(value) {
				return Selection{}, &UnrecognizedOptionError{Option: opt.Name, Value: value, Allowed: opt.Choices}
			}
			*dst = value

		case catalog.KindBool:
			dst, ok := bools[opt.Name]
			if !ok {
				return Selection{}, fmt.Errorf("selection: no field for option %q", opt.Name)
			}
			b, err := parseBool(value)
			if err != nil {
				return Selection{}, &UnrecognizedOptionError{Option: opt.Name, Value: value, Allowed: []string{"true", "false"}}
			}
			*dst = b

		case catalog.KindInt:
			dst, ok := integers[opt.Name]
			if !ok {
				return Selection{}, fmt.Errorf("selection: no field for option %q", opt.Name)
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return Selection{}, &UnrecognizedOptionError{Option: opt.Name, Value: value, Expected: "a non-negative integer"}
			}
			*dst = n

		default:
			return Selection{}, fmt.Errorf("selection: option %q has unsupported kind %s", opt.Name, opt.Kind)
		}
	}

	return sel, nil
}

// parseBool accepts the strconv forms plus yes/no and on/off.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}
