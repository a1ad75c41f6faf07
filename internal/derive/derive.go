// Package derive turns a resolved selection into the values substituted into
// the constants header and the Makefile.
//
// Derivation is an ordered list of pure steps. Each step receives the
// selection and the records built so far and returns new records; nothing is
// mutated in place. Several steps append to a value an earlier step set, so
// the order of Steps is part of the contract.
package derive

import (
	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/selection"
)

// SourceExt is appended to every source file stem in the last step.
const SourceExt = ".cpp"

// MPIWrapper replaces the compiler invocation for wrapper-based MPI builds.
const MPIWrapper = "mpicxx"

// Step is one named derivation rule.
type Step struct {
	Name  string
	Apply func(selection.Selection, Result) Result
}

// compiler describes how one supported compiler is driven.
type compiler struct {
	invocation string // name used in the Makefile
	optimize   string
	debug      string
	// mpi is appended to the flags when set; otherwise MPI builds switch
	// the invocation to MPIWrapper.
	mpi    string
	openMP string
	// noOpenMP is appended when OpenMP is off, for compilers that enable it
	// by default.
	noOpenMP string
}

var compilers = map[string]compiler{
	catalog.CompilerGNU: {
		invocation: "g++",
		optimize:   "-O3",
		debug:      "-g -O0",
		openMP:     "-fopenmp",
	},
	catalog.CompilerIntel: {
		invocation: "icc",
		optimize:   "-O3 -xhost -ipo",
		debug:      "-g -O0",
		openMP:     "-openmp",
	},
	catalog.CompilerCray: {
		invocation: "CC",
		optimize:   "-O3 -lm -h aggress -h vector3 -hfp3",
		debug:      "-O0",
		mpi:        "-h mpi1",
		openMP:     "-homp",
		noOpenMP:   "-hnoomp",
	},
}

var steps = []Step{
	{"problem", problemStep},
	{"coordinates", coordinatesStep},
	{"eos", eosStep},
	{"rsolver", rsolverStep},
	{"magnetic-fields", magneticStep},
	{"relativity", relativityStep},
	{"reconstruction", reconstructStep},
	{"integrator", integratorStep},
	{"compiler", compilerStep},
	{"mpi", mpiStep},
	{"debug", debugStep},
	{"openmp", openMPStep},
	{"counts", countsStep},
	{"extensions", extensionStep},
}

// Steps returns the derivation rules in application order.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// Derive applies every step in order to sel.
func Derive(sel selection.Selection) Result {
	var r Result
	for _, s := range steps {
		r = s.Apply(sel, r)
	}
	return r
}

func problemStep(sel selection.Selection, r Result) Result {
	r.Definitions.Problem = sel.Problem
	r.Makefile.ProblemFile = sel.Problem
	return r
}

func coordinatesStep(sel selection.Selection, r Result) Result {
	r.Definitions.CoordinateSystem = sel.Coordinates
	r.Makefile.CoordinatesFile = sel.Coordinates
	return r
}

func eosStep(sel selection.Selection, r Result) Result {
	r.Definitions.NonBarotropicEOS = sel.Adiabatic()
	r.Makefile.EOSFile = sel.EOS
	if sel.Adiabatic() {
		r.Definitions.NFluidVariables = 5
	} else {
		r.Definitions.NFluidVariables = 4
	}
	return r
}

func rsolverStep(sel selection.Selection, r Result) Result {
	r.Definitions.RSolver = sel.Flux
	r.Makefile.RSolverFile = sel.Flux
	return r
}

func magneticStep(sel selection.Selection, r Result) Result {
	r.Definitions.MagneticFields = sel.Magnetic

	if !sel.Magnetic {
		r.Makefile.EOSFile += "_hydro"
		r.Makefile.RSolverDir = "hydro/"
		r.Definitions.NFieldVariables = 0
		if sel.Adiabatic() {
			r.Definitions.NWaves = 5
		} else {
			r.Definitions.NWaves = 4
		}
		return r
	}

	r.Makefile.EOSFile += "_mhd"
	r.Makefile.RSolverDir = "mhd/"
	r.Definitions.NFieldVariables = 3
	if sel.Flux == catalog.FluxHLLE || sel.Flux == catalog.FluxLLF {
		r.Makefile.RSolverFile += "_mhd"
	}
	if sel.Adiabatic() {
		r.Definitions.NWaves = 7
	} else {
		r.Definitions.NWaves = 6
		if sel.Flux == catalog.FluxHLLD {
			r.Makefile.RSolverFile += "_iso"
		}
	}
	return r
}

func relativityStep(sel selection.Selection, r Result) Result {
	r.Definitions.Relativistic = sel.Relativistic()
	r.Definitions.GeneralRelativity = sel.General
	if sel.Special {
		r.Makefile.EOSFile += "_sr"
		r.Makefile.RSolverFile += "_rel"
	}
	if sel.General {
		r.Makefile.EOSFile += "_gr"
		r.Makefile.RSolverFile += "_rel"
		if !sel.Transform {
			r.Makefile.RSolverFile += "_no_transform"
		}
	}
	return r
}

func reconstructStep(sel selection.Selection, r Result) Result {
	r.Definitions.Reconstruct = sel.Order
	r.Makefile.ReconstructFile = sel.Order
	return r
}

func integratorStep(sel selection.Selection, r Result) Result {
	r.Definitions.FluidIntegrator = sel.Integrator
	r.Makefile.FluidIntFile = sel.Integrator
	return r
}

func compilerStep(sel selection.Selection, r Result) Result {
	c := compilers[sel.Compiler]
	r.Definitions.CompilerChoice = sel.Compiler
	r.Makefile.CompilerChoice = c.invocation
	r.Definitions.CompilerFlags = c.optimize
	r.Makefile.CompilerFlags = c.optimize
	return r
}

func mpiStep(sel selection.Selection, r Result) Result {
	r.Definitions.MPI = sel.MPI
	if !sel.MPI {
		return r
	}
	c := compilers[sel.Compiler]
	if c.mpi != "" {
		r = appendFlags(r, c.mpi)
		return r
	}
	r.Definitions.CompilerChoice = MPIWrapper
	r.Makefile.CompilerChoice = MPIWrapper
	return r
}

// debugStep overwrites whatever flags the compiler and MPI steps produced.
func debugStep(sel selection.Selection, r Result) Result {
	r.Definitions.Debug = sel.Debug
	if !sel.Debug {
		return r
	}
	c := compilers[sel.Compiler]
	r.Definitions.CompilerFlags = c.debug
	r.Makefile.CompilerFlags = c.debug
	return r
}

// openMPStep runs after debugStep so threading flags survive a debug build.
func openMPStep(sel selection.Selection, r Result) Result {
	r.Definitions.OpenMP = sel.OpenMP
	c := compilers[sel.Compiler]
	switch {
	case sel.OpenMP && c.openMP != "":
		r = appendFlags(r, c.openMP)
	case !sel.OpenMP && c.noOpenMP != "":
		r = appendFlags(r, c.noOpenMP)
	}
	return r
}

func countsStep(sel selection.Selection, r Result) Result {
	r.Definitions.NumIFOV = sel.IFOV
	r.Definitions.IDLength = sel.IDLength
	return r
}

func extensionStep(_ selection.Selection, r Result) Result {
	r.Makefile.ProblemFile += SourceExt
	r.Makefile.CoordinatesFile += SourceExt
	r.Makefile.EOSFile += SourceExt
	r.Makefile.RSolverFile += SourceExt
	r.Makefile.ReconstructFile += SourceExt
	r.Makefile.FluidIntFile += SourceExt
	return r
}

func appendFlags(r Result, extra string) Result {
	r.Definitions.CompilerFlags += " " + extra
	r.Makefile.CompilerFlags += " " + extra
	return r
}
