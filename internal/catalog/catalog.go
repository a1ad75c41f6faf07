// Package catalog holds the fixed registry of configure options.
//
// Every option the configure step understands is declared here together with
// its kind, its default and, for enumerated options, its allowed values. The
// allowed problem generators are not known statically; they come from a
// PluginRegistry supplied when the catalog is built.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
)

// Kind describes how an option's value is parsed.
type Kind int

// Kind constants.
const (
	KindEnum Kind = iota // One of a fixed or discovered set of names
	KindBool             // On/off toggle
	KindInt              // Non-negative integer
)

func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "unknown"
	}
}

// Option names.
const (
	Problem     = "prob"
	Coordinates = "coord"
	EOS         = "eos"
	Flux        = "flux"
	Order       = "order"
	Integrator  = "fint"
	Compiler    = "cxx"
	Magnetic    = "mhd"
	Special     = "sr"
	General     = "gr"
	Transform   = "transform"
	MPI         = "mpi"
	OpenMP      = "omp"
	IFOV        = "ifov"
	IDLength    = "idlength"
	Debug       = "debug"
)

// Enumerated values referenced by validation and derivation.
const (
	EOSAdiabatic  = "adiabatic"
	EOSIsothermal = "isothermal"

	FluxHLLE = "hlle"
	FluxHLLC = "hllc"
	FluxHLLD = "hlld"
	FluxRoe  = "roe"
	FluxLLF  = "llf"

	CompilerGNU   = "g++"
	CompilerIntel = "icc"
	CompilerCray  = "cray"

	DefaultProblem = "shock_tube"
)

// Option is a single catalog entry.
type Option struct {
	Name      string
	Shorthand string
	Usage     string
	Kind      Kind
	Default   string
	// Choices is the allowed set for KindEnum. Empty for other kinds.
	Choices []string
	// Discovered is true when Choices came from a PluginRegistry.
	Discovered bool
}

// Allows reports whether value is in the option's allowed set.
// Only meaningful for enumerated options.
func (o Option) Allows(value string) bool {
	return slices.Contains(o.Choices, value)
}

func (o Option) clone() Option {
	o.Choices = slices.Clone(o.Choices)
	return o
}

// DefaultBool returns the default of a bool option.
func (o Option) DefaultBool() bool {
	b, _ := strconv.ParseBool(o.Default)
	return b
}

// DefaultInt returns the default of an int option.
func (o Option) DefaultInt() int {
	n, _ := strconv.Atoi(o.Default)
	return n
}

// Catalog is an ordered, read-only set of options.
type Catalog struct {
	options []Option
	byName  map[string]int
}

// static lists every option except the problem generator, in display order.
var static = []Option{
	{Name: Coordinates, Usage: "select coordinate system", Kind: KindEnum, Default: "cartesian",
		Choices: []string{"cartesian", "cylindrical", "spherical_polar", "minkowski", "schwarzschild"}},
	{Name: EOS, Usage: "select equation of state", Kind: KindEnum, Default: EOSAdiabatic,
		Choices: []string{EOSAdiabatic, EOSIsothermal}},
	{Name: Flux, Usage: "select Riemann solver", Kind: KindEnum, Default: FluxHLLE,
		Choices: []string{FluxHLLE, FluxHLLC, FluxHLLD, FluxRoe, FluxLLF}},
	{Name: Magnetic, Shorthand: "b", Usage: "enable magnetic field", Kind: KindBool, Default: "false"},
	{Name: Special, Shorthand: "s", Usage: "enable special relativity", Kind: KindBool, Default: "false"},
	{Name: General, Shorthand: "g", Usage: "enable general relativity", Kind: KindBool, Default: "false"},
	{Name: Transform, Shorthand: "t", Usage: "enable interface frame transformations for GR", Kind: KindBool, Default: "false"},
	{Name: Order, Usage: "select spatial reconstruction algorithm", Kind: KindEnum, Default: "plm",
		Choices: []string{"plm"}},
	{Name: Integrator, Usage: "select fluid time-integration algorithm", Kind: KindEnum, Default: "vl2",
		Choices: []string{"vl2"}},
	{Name: Compiler, Usage: "select C++ compiler", Kind: KindEnum, Default: CompilerGNU,
		Choices: []string{CompilerGNU, CompilerIntel, CompilerCray}},
	{Name: MPI, Usage: "enable parallelization with MPI", Kind: KindBool, Default: "false"},
	{Name: OpenMP, Usage: "enable parallelization with OpenMP", Kind: KindBool, Default: "false"},
	{Name: IFOV, Usage: "number of internal fluid output variables", Kind: KindInt, Default: "0"},
	{Name: IDLength, Usage: "length of the block UID", Kind: KindInt, Default: "1"},
	{Name: Debug, Usage: "enable debug flags; override other compiler options", Kind: KindBool, Default: "false"},
}

// Declared returns every option in display order without consulting a
// registry. The problem generator's Choices are empty.
//
// Flag registration uses this, since flags must exist before the project
// directory is known.
func Declared() []Option {
	options := make([]Option, 0, len(static)+1)
	options = append(options, Option{
		Name:       Problem,
		Usage:      "select problem generator",
		Kind:       KindEnum,
		Default:    DefaultProblem,
		Discovered: true,
	})
	for _, opt := range static {
		options = append(options, opt.clone())
	}
	return options
}

// New builds the catalog, asking plugins for the available problem generators.
func New(ctx context.Context, plugins PluginRegistry) (*Catalog, error) {
	if plugins == nil {
		return nil, fmt.Errorf("catalog: plugin registry is required")
	}
	names, err := plugins.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing problem generators: %w", err)
	}

	options := Declared()
	options[0].Choices = names

	c := &Catalog{
		options: options,
		byName:  make(map[string]int, len(options)),
	}
	for i, opt := range options {
		c.byName[opt.Name] = i
	}
	return c, nil
}

// Lookup returns the option with the given name.
func (c *Catalog) Lookup(name string) (Option, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Option{}, false
	}
	return c.options[i].clone(), true
}

// Options returns a copy of all options in display order.
func (c *Catalog) Options() []Option {
	out := make([]Option, len(c.options))
	for i, opt := range c.options {
		out[i] = opt.clone()
	}
	return out
}

// Names returns option names in display order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.options))
	for i, opt := range c.options {
		names[i] = opt.Name
	}
	return names
}
