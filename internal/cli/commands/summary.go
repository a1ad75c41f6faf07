package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/athconf/internal/cli/output"
	"github.com/leapstack-labs/athconf/internal/pipeline"
)

const summaryHeadline = "Your Athena++ distribution has now been configured with the following options:"

// summaryLine is one labelled row of the configuration summary.
type summaryLine struct {
	Label string
	Value string
}

// summaryView is the machine-readable form of a configure result.
type summaryView struct {
	Problem            string `json:"problem" yaml:"problem"`
	Coordinates        string `json:"coordinates" yaml:"coordinates"`
	EOS                string `json:"eos" yaml:"eos"`
	Flux               string `json:"flux" yaml:"flux"`
	Order              string `json:"order" yaml:"order"`
	Integrator         string `json:"integrator" yaml:"integrator"`
	Compiler           string `json:"compiler" yaml:"compiler"`
	CompilerFlags      string `json:"compiler_flags" yaml:"compiler_flags"`
	Magnetic           bool   `json:"magnetic" yaml:"magnetic"`
	Special            bool   `json:"special_relativity" yaml:"special_relativity"`
	General            bool   `json:"general_relativity" yaml:"general_relativity"`
	Transform          bool   `json:"frame_transformations" yaml:"frame_transformations"`
	MPI                bool   `json:"mpi" yaml:"mpi"`
	OpenMP             bool   `json:"openmp" yaml:"openmp"`
	Debug              bool   `json:"debug" yaml:"debug"`
	IFOV               int    `json:"ifov" yaml:"ifov"`
	IDLength           int    `json:"idlength" yaml:"idlength"`
	MaxRefinementLevel int    `json:"max_refinement_level" yaml:"max_refinement_level"`

	Written  bool              `json:"written" yaml:"written"`
	Outputs  map[string]string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Rendered map[string]string `json:"rendered,omitempty" yaml:"rendered,omitempty"`
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// summaryLines lists the summary rows in display order.
func summaryLines(res *pipeline.Result) []summaryLine {
	sel := res.Selection
	mk := res.Derived.Makefile
	return []summaryLine{
		{"Problem generator:", sel.Problem},
		{"Coordinate system:", sel.Coordinates},
		{"Equation of state:", sel.EOS},
		{"Riemann solver:", sel.Flux},
		{"Reconstruction method:", sel.Order},
		{"Fluid integrator:", sel.Integrator},
		{"Compiler and flags:", mk.CompileCommand()},
		{"Magnetic fields:", enabled(sel.Magnetic)},
		{"Special relativity:", enabled(sel.Special)},
		{"General relativity:", enabled(sel.General)},
		{"Frame transformations:", enabled(sel.Transform)},
		{"MPI parallelism:", enabled(sel.MPI)},
		{"OpenMP parallelism:", enabled(sel.OpenMP)},
		{"Debug flags:", enabled(sel.Debug)},
		{"Internal fluid outvars:", strconv.Itoa(sel.IFOV)},
		{"UID Length:", fmt.Sprintf("%d  (maximum refinement level = %d)", sel.IDLength, sel.MaxRefinementLevel())},
	}
}

func newSummaryView(res *pipeline.Result, paths pipeline.Paths) summaryView {
	sel := res.Selection
	v := summaryView{
		Problem:            sel.Problem,
		Coordinates:        sel.Coordinates,
		EOS:                sel.EOS,
		Flux:               sel.Flux,
		Order:              sel.Order,
		Integrator:         sel.Integrator,
		Compiler:           res.Derived.Makefile.CompilerChoice,
		CompilerFlags:      res.Derived.Makefile.CompilerFlags,
		Magnetic:           sel.Magnetic,
		Special:            sel.Special,
		General:            sel.General,
		Transform:          sel.Transform,
		MPI:                sel.MPI,
		OpenMP:             sel.OpenMP,
		Debug:              sel.Debug,
		IFOV:               sel.IFOV,
		IDLength:           sel.IDLength,
		MaxRefinementLevel: sel.MaxRefinementLevel(),
		Written:            res.Written,
	}
	if res.Written {
		v.Outputs = map[string]string{"makefile": paths.MakefileOutput, "defs": paths.DefsOutput}
	} else {
		v.Rendered = map[string]string{"makefile": res.Makefile.Text, "defs": res.Defs.Text}
	}
	return v
}

// printSummary renders the configure result in the renderer's mode.
func printSummary(r *output.Renderer, res *pipeline.Result, paths pipeline.Paths) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(newSummaryView(res, paths))
	case output.ModeYAML:
		return r.YAML(newSummaryView(res, paths))
	case output.ModeMarkdown:
		summaryMarkdown(r, res, paths)
	default:
		summaryText(r, res, paths)
	}
	return nil
}

func summaryText(r *output.Renderer, res *pipeline.Result, paths pipeline.Paths) {
	r.Println(summaryHeadline)
	for _, line := range summaryLines(res) {
		r.Printf("  %-25s%s\n", line.Label, line.Value)
	}
	if res.Written {
		return
	}

	r.Println("")
	r.Println(r.Muted("Dry run: nothing was written."))
	r.Header(2, paths.MakefileOutput)
	r.Printf("%s", res.Makefile.Text)
	r.Header(2, paths.DefsOutput)
	r.Printf("%s", res.Defs.Text)
}

func summaryMarkdown(r *output.Renderer, res *pipeline.Result, paths pipeline.Paths) {
	r.Println(output.FormatHeader(1, "Configuration"))
	r.Println("")
	for _, line := range summaryLines(res) {
		r.Println(output.FormatKeyValue(strings.TrimSuffix(line.Label, ":"), line.Value))
	}
	r.Println("")

	if res.Written {
		r.Println(output.FormatKeyValue("Makefile", paths.MakefileOutput))
		r.Println(output.FormatKeyValue("Definitions", paths.DefsOutput))
		return
	}

	r.Println(output.FormatHeader(2, paths.MakefileOutput))
	r.Println(output.FormatCodeBlock("make", res.Makefile.Text))
	r.Println("")
	r.Println(output.FormatHeader(2, paths.DefsOutput))
	r.Println(output.FormatCodeBlock("cpp", res.Defs.Text))
}
