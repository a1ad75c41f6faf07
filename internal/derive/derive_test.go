package derive

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/athconf/internal/selection"
)

func defaults() selection.Selection {
	return selection.Selection{
		Problem:     "shock_tube",
		Coordinates: "cartesian",
		EOS:         "adiabatic",
		Flux:        "hlle",
		Order:       "plm",
		Integrator:  "vl2",
		Compiler:    "g++",
		IDLength:    1,
	}
}

func TestDerive_Defaults(t *testing.T) {
	got := Derive(defaults())

	want := Result{
		Definitions: Definitions{
			Problem:          "shock_tube",
			CoordinateSystem: "cartesian",
			NonBarotropicEOS: true,
			NFluidVariables:  5,
			RSolver:          "hlle",
			NWaves:           5,
			Reconstruct:      "plm",
			FluidIntegrator:  "vl2",
			CompilerChoice:   "g++",
			CompilerFlags:    "-O3",
			IDLength:         1,
		},
		Makefile: Makefile{
			ProblemFile:     "shock_tube.cpp",
			CoordinatesFile: "cartesian.cpp",
			EOSFile:         "adiabatic_hydro.cpp",
			RSolverFile:     "hlle.cpp",
			RSolverDir:      "hydro/",
			ReconstructFile: "plm.cpp",
			FluidIntFile:    "vl2.cpp",
			CompilerChoice:  "g++",
			CompilerFlags:   "-O3",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Derive() mismatch (-want +got):\n%s", diff)
	}
}

func TestDerive_FluidVariables(t *testing.T) {
	for _, eos := range []string{"adiabatic", "isothermal"} {
		for _, mhd := range []bool{false, true} {
			sel := defaults()
			sel.EOS = eos
			sel.Magnetic = mhd
			got := Derive(sel).Definitions

			if eos == "adiabatic" {
				assert.Equal(t, 5, got.NFluidVariables)
				assert.True(t, got.NonBarotropicEOS)
			} else {
				assert.Equal(t, 4, got.NFluidVariables)
				assert.False(t, got.NonBarotropicEOS)
			}
		}
	}
}

func TestDerive_WaveAndFieldCounts(t *testing.T) {
	tests := []struct {
		mhd        bool
		eos        string
		wantWaves  int
		wantFields int
		wantDir    string
		wantEOS    string
	}{
		{true, "adiabatic", 7, 3, "mhd/", "adiabatic_mhd.cpp"},
		{true, "isothermal", 6, 3, "mhd/", "isothermal_mhd.cpp"},
		{false, "adiabatic", 5, 0, "hydro/", "adiabatic_hydro.cpp"},
		{false, "isothermal", 4, 0, "hydro/", "isothermal_hydro.cpp"},
	}

	for _, tt := range tests {
		sel := defaults()
		sel.Magnetic = tt.mhd
		sel.EOS = tt.eos
		got := Derive(sel)

		assert.Equal(t, tt.wantWaves, got.Definitions.NWaves, "mhd=%v eos=%s", tt.mhd, tt.eos)
		assert.Equal(t, tt.wantFields, got.Definitions.NFieldVariables)
		assert.Equal(t, tt.mhd, got.Definitions.MagneticFields)
		assert.Equal(t, tt.wantDir, got.Makefile.RSolverDir)
		assert.Equal(t, tt.wantEOS, got.Makefile.EOSFile)
	}
}

func TestDerive_RiemannSolverFile(t *testing.T) {
	tests := []struct {
		name string
		flux string
		eos  string
		mhd  bool
		want string
	}{
		{"hydro hlle", "hlle", "adiabatic", false, "hlle.cpp"},
		{"hydro hllc", "hllc", "adiabatic", false, "hllc.cpp"},
		{"mhd hlle", "hlle", "adiabatic", true, "hlle_mhd.cpp"},
		{"mhd llf", "llf", "isothermal", true, "llf_mhd.cpp"},
		{"mhd roe", "roe", "adiabatic", true, "roe.cpp"},
		{"mhd hlld adiabatic", "hlld", "adiabatic", true, "hlld.cpp"},
		{"mhd hlld isothermal", "hlld", "isothermal", true, "hlld_iso.cpp"},
		{"hydro hlld isothermal", "hlld", "isothermal", false, "hlld.cpp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := defaults()
			sel.Flux = tt.flux
			sel.EOS = tt.eos
			sel.Magnetic = tt.mhd
			assert.Equal(t, tt.want, Derive(sel).Makefile.RSolverFile)
		})
	}
}

func TestDerive_Relativity(t *testing.T) {
	tests := []struct {
		name       string
		sr, gr, tf bool
		mhd        bool
		wantEOS    string
		wantSolver string
		wantRel    bool
		wantGR     bool
	}{
		{"newtonian", false, false, false, false, "adiabatic_hydro.cpp", "hlle.cpp", false, false},
		{"special", true, false, false, false, "adiabatic_hydro_sr.cpp", "hlle_rel.cpp", true, false},
		{"general without transform", false, true, false, false, "adiabatic_hydro_gr.cpp", "hlle_rel_no_transform.cpp", true, true},
		{"general with transform", false, true, true, false, "adiabatic_hydro_gr.cpp", "hlle_rel.cpp", true, true},
		{"transform alone is inert", false, false, true, false, "adiabatic_hydro.cpp", "hlle.cpp", false, false},
		{"special mhd", true, false, false, true, "adiabatic_mhd_sr.cpp", "hlle_mhd_rel.cpp", true, false},
		{"both modes", true, true, false, false, "adiabatic_hydro_sr_gr.cpp", "hlle_rel_rel_no_transform.cpp", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := defaults()
			sel.Special = tt.sr
			sel.General = tt.gr
			sel.Transform = tt.tf
			sel.Magnetic = tt.mhd
			got := Derive(sel)

			assert.Equal(t, tt.wantEOS, got.Makefile.EOSFile)
			assert.Equal(t, tt.wantSolver, got.Makefile.RSolverFile)
			assert.Equal(t, tt.wantRel, got.Definitions.Relativistic)
			assert.Equal(t, tt.wantGR, got.Definitions.GeneralRelativity)
		})
	}
}

func TestDerive_Compiler(t *testing.T) {
	tests := []struct {
		name         string
		cxx          string
		mpi, omp     bool
		debug        bool
		wantMakeCXX  string
		wantDefsCXX  string
		wantFlags    string
	}{
		{"gnu", "g++", false, false, false, "g++", "g++", "-O3"},
		{"gnu omp", "g++", false, true, false, "g++", "g++", "-O3 -fopenmp"},
		{"gnu mpi", "g++", true, false, false, "mpicxx", "mpicxx", "-O3"},
		{"gnu debug", "g++", false, false, true, "g++", "g++", "-g -O0"},
		{"gnu debug omp", "g++", false, true, true, "g++", "g++", "-g -O0 -fopenmp"},
		{"intel", "icc", false, false, false, "icc", "icc", "-O3 -xhost -ipo"},
		{"intel mpi omp", "icc", true, true, false, "mpicxx", "mpicxx", "-O3 -xhost -ipo -openmp"},
		{"intel debug omp", "icc", false, true, true, "icc", "icc", "-g -O0 -openmp"},
		{"cray", "cray", false, false, false, "CC", "cray", "-O3 -lm -h aggress -h vector3 -hfp3 -hnoomp"},
		{"cray omp", "cray", false, true, false, "CC", "cray", "-O3 -lm -h aggress -h vector3 -hfp3 -homp"},
		{"cray mpi", "cray", true, false, false, "CC", "cray", "-O3 -lm -h aggress -h vector3 -hfp3 -h mpi1 -hnoomp"},
		{"cray mpi debug", "cray", true, false, true, "CC", "cray", "-O0 -hnoomp"},
		{"cray mpi debug omp", "cray", true, true, true, "CC", "cray", "-O0 -homp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := defaults()
			sel.Compiler = tt.cxx
			sel.MPI = tt.mpi
			sel.OpenMP = tt.omp
			sel.Debug = tt.debug
			got := Derive(sel)

			assert.Equal(t, tt.wantMakeCXX, got.Makefile.CompilerChoice)
			assert.Equal(t, tt.wantDefsCXX, got.Definitions.CompilerChoice)
			assert.Equal(t, tt.wantFlags, got.Makefile.CompilerFlags)
			assert.Equal(t, tt.wantFlags, got.Definitions.CompilerFlags)
			assert.Equal(t, tt.mpi, got.Definitions.MPI)
			assert.Equal(t, tt.omp, got.Definitions.OpenMP)
			assert.Equal(t, tt.debug, got.Definitions.Debug)
		})
	}
}

func TestDerive_Counts(t *testing.T) {
	sel := defaults()
	sel.IFOV = 4
	sel.IDLength = 2

	m := Derive(sel).Definitions.Map()
	assert.Equal(t, "4", m[TokNumIFOV])
	assert.Equal(t, "2", m[TokIDLength])
}

func TestDerive_Deterministic(t *testing.T) {
	sel := defaults()
	sel.Magnetic = true
	sel.General = true
	sel.Compiler = "cray"
	sel.MPI = true

	first := Derive(sel)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Derive(sel)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestSteps_EachStepIsPure(t *testing.T) {
	sel := defaults()
	sel.Magnetic = true
	sel.OpenMP = true

	var r Result
	for _, s := range Steps() {
		before := r
		next := s.Apply(sel, r)
		assert.Equal(t, before, r, "step %q mutated its input", s.Name)
		r = next
	}
	assert.Equal(t, Derive(sel), r)
}

func TestSteps_Order(t *testing.T) {
	var names []string
	for _, s := range Steps() {
		names = append(names, s.Name)
	}
	// debug must overwrite MPI flags and precede the OpenMP append.
	idx := func(name string) int {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		return -1
	}
	require.NotEqual(t, -1, idx("debug"))
	assert.Less(t, idx("compiler"), idx("mpi"))
	assert.Less(t, idx("mpi"), idx("debug"))
	assert.Less(t, idx("debug"), idx("openmp"))
	assert.Equal(t, "extensions", names[len(names)-1])
}

func TestTokens_CoverEveryField(t *testing.T) {
	r := Derive(defaults())

	assert.Len(t, r.Definitions.Tokens(), reflect.TypeOf(Definitions{}).NumField())
	assert.Len(t, r.Makefile.Tokens(), reflect.TypeOf(Makefile{}).NumField())
	assert.Len(t, r.Definitions.Map(), len(r.Definitions.Tokens()), "header token names must be unique")
	assert.Len(t, r.Makefile.Map(), len(r.Makefile.Tokens()), "Makefile token names must be unique")
}

func TestTokens_TextualForms(t *testing.T) {
	sel := defaults()
	sel.Magnetic = true
	sel.MPI = true
	sel.Debug = true
	m := Derive(sel).Definitions.Map()

	assert.Equal(t, "1", m[TokNonBarotropicEOS])
	assert.Equal(t, "1", m[TokMagneticFieldsEnabled])
	assert.Equal(t, "0", m[TokRelativisticDynamics])
	assert.Equal(t, "MPI_PARALLEL", m[TokMPIOption])
	assert.Equal(t, "DEBUG", m[TokDebug])
	assert.Equal(t, "NOT_OPENMP_PARALLEL", m[TokOpenMPOption])
	assert.Equal(t, "7", m[TokNWaveValue])
}

func TestMakefile_CompileCommand(t *testing.T) {
	sel := defaults()
	sel.Compiler = "icc"
	sel.OpenMP = true
	assert.Equal(t, "icc -O3 -xhost -ipo -openmp", Derive(sel).Makefile.CompileCommand())
}
