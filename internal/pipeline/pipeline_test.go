package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/compat"
	"github.com/leapstack-labs/athconf/internal/selection"
	"github.com/leapstack-labs/athconf/internal/sink"
	"github.com/leapstack-labs/athconf/internal/template"
	"github.com/leapstack-labs/athconf/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newPipeline(t *testing.T, proj testutil.Project) *Pipeline {
	t.Helper()
	p, err := New(Config{
		Plugins: catalog.DirRegistry{Dir: proj.PgenDir},
		Paths: Paths{
			MakefileTemplate: proj.MakefileTemplate,
			MakefileOutput:   proj.MakefileOutput,
			DefsTemplate:     proj.DefsTemplate,
			DefsOutput:       proj.DefsOutput,
		},
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{Plugins: catalog.StaticRegistry{"x"}})
	require.Error(t, err)

	_, err = New(Config{
		Plugins: catalog.StaticRegistry{"x"},
		Paths:   Paths{MakefileTemplate: "a", DefsTemplate: "b"},
	})
	require.Error(t, err)
}

func TestRun_Defaults(t *testing.T) {
	proj := testutil.SetupProject(t)
	p := newPipeline(t, proj)

	res, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Written)

	makefile := testutil.ReadFile(t, proj.MakefileOutput)
	assert.Contains(t, makefile, "CXX := g++\n")
	assert.Contains(t, makefile, "CPPFLAGS := -O3\n")
	assert.Contains(t, makefile, "EOS_FILE = adiabatic_hydro.cpp\n")
	assert.Contains(t, makefile, "RSOLVER_DIR = hydro/\n")
	assert.Contains(t, makefile, "\t@echo building")
	assert.NotContains(t, makefile, "@EOS_FILE@")

	defs := testutil.ReadFile(t, proj.DefsOutput)
	assert.Contains(t, defs, `#define PROBLEM_GENERATOR "shock_tube"`)
	assert.Contains(t, defs, "#define NFLUID 5\n")
	assert.Contains(t, defs, "#define NWAVE 5\n")
	assert.Contains(t, defs, "#define NOT_MPI_PARALLEL\n")
	assert.Contains(t, defs, "#define NOT_OPENMP_PARALLEL\n")
	assert.Contains(t, defs, "#define NOT_DEBUG\n")
	assert.Contains(t, defs, "#define ID_LENGTH 1\n")
}

func TestRun_MHDCray(t *testing.T) {
	proj := testutil.SetupProject(t)
	p := newPipeline(t, proj)

	_, err := p.Run(context.Background(), selection.Raw{
		"prob": "orszag_tang",
		"mhd":  "true",
		"eos":  "isothermal",
		"flux": "hlld",
		"cxx":  "cray",
		"mpi":  "true",
		"omp":  "true",
	})
	require.NoError(t, err)

	makefile := testutil.ReadFile(t, proj.MakefileOutput)
	assert.Contains(t, makefile, "CXX := CC\n")
	assert.Contains(t, makefile, "CPPFLAGS := -O3 -lm -h aggress -h vector3 -hfp3 -h mpi1 -homp\n")
	assert.Contains(t, makefile, "RSOLVER_FILE = hlld_iso.cpp\n")
	assert.Contains(t, makefile, "RSOLVER_DIR = mhd/\n")

	defs := testutil.ReadFile(t, proj.DefsOutput)
	assert.Contains(t, defs, `#define COMPILED_WITH "cray"`)
	assert.Contains(t, defs, "#define NWAVE 6\n")
	assert.Contains(t, defs, "#define NFIELD 3\n")
	assert.Contains(t, defs, "#define MPI_PARALLEL\n")
}

func TestRun_AllowedCombinationsSucceed(t *testing.T) {
	for _, eos := range []string{"adiabatic", "isothermal"} {
		for _, flux := range []string{"hlle", "hllc", "hlld", "roe", "llf"} {
			for _, mhd := range []string{"false", "true"} {
				forbidden := flux == "hllc" && (eos == "isothermal" || mhd == "true")
				name := strings.Join([]string{eos, flux, mhd}, "/")
				t.Run(name, func(t *testing.T) {
					proj := testutil.SetupProject(t)
					p := newPipeline(t, proj)

					_, err := p.Run(context.Background(), selection.Raw{"eos": eos, "flux": flux, "mhd": mhd})
					if forbidden {
						require.ErrorIs(t, err, compat.ErrIncompatibleOptions)
						assertNoOutputs(t, proj)
						return
					}
					require.NoError(t, err)
					assert.FileExists(t, proj.MakefileOutput)
					assert.FileExists(t, proj.DefsOutput)
				})
			}
		}
	}
}

func TestRun_IncompatibleLeavesExistingOutputsAlone(t *testing.T) {
	proj := testutil.SetupProject(t)
	require.NoError(t, os.WriteFile(proj.MakefileOutput, []byte("previous"), 0o600))
	p := newPipeline(t, proj)

	_, err := p.Run(context.Background(), selection.Raw{"flux": "hllc", "mhd": "true"})
	require.ErrorIs(t, err, compat.ErrIncompatibleOptions)
	assert.Equal(t, "previous", testutil.ReadFile(t, proj.MakefileOutput))
}

func TestRun_ValidationPrecedesTemplateReads(t *testing.T) {
	proj := testutil.SetupProject(t)
	require.NoError(t, os.Remove(proj.MakefileTemplate))
	p := newPipeline(t, proj)

	// The missing template is never consulted for an invalid selection.
	_, err := p.Run(context.Background(), selection.Raw{"eos": "isothermal", "flux": "hllc"})
	require.ErrorIs(t, err, compat.ErrIncompatibleOptions)

	_, err = p.Run(context.Background(), selection.Raw{"eos": "bogus"})
	require.ErrorIs(t, err, selection.ErrUnrecognizedOption)
}

func TestRun_MissingTemplate(t *testing.T) {
	proj := testutil.SetupProject(t)
	require.NoError(t, os.Remove(proj.DefsTemplate))
	p := newPipeline(t, proj)

	_, err := p.Run(context.Background(), nil)
	require.ErrorIs(t, err, sink.ErrResource)
	assertNoOutputs(t, proj)
}

func TestRun_UnresolvedTokenWritesNothing(t *testing.T) {
	proj := testutil.SetupProject(t)
	require.NoError(t, os.WriteFile(proj.MakefileTemplate, []byte("X = @NOT_A_MAKEFILE_TOKEN@\nY = @PROBLEM@\n"), 0o600))
	p := newPipeline(t, proj)

	_, err := p.Run(context.Background(), nil)
	require.ErrorIs(t, err, template.ErrUnresolvedToken)
	// PROBLEM belongs to the header namespace only.
	assert.Contains(t, err.Error(), "PROBLEM")
	assertNoOutputs(t, proj)
}

func TestRun_MissingPgenDir(t *testing.T) {
	proj := testutil.SetupProject(t)
	require.NoError(t, os.RemoveAll(proj.PgenDir))
	p := newPipeline(t, proj)

	_, err := p.Run(context.Background(), nil)
	require.ErrorIs(t, err, sink.ErrResource)
}

func TestRun_Idempotent(t *testing.T) {
	proj := testutil.SetupProject(t)
	raw := selection.Raw{"mhd": "true", "gr": "true", "cxx": "icc", "omp": "true", "debug": "true", "idlength": "2"}

	_, err := newPipeline(t, proj).Run(context.Background(), raw)
	require.NoError(t, err)
	firstMake := testutil.ReadFile(t, proj.MakefileOutput)
	firstDefs := testutil.ReadFile(t, proj.DefsOutput)

	_, err = newPipeline(t, proj).Run(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, firstMake, testutil.ReadFile(t, proj.MakefileOutput))
	assert.Equal(t, firstDefs, testutil.ReadFile(t, proj.DefsOutput))
}

func TestPlan_DoesNotWrite(t *testing.T) {
	proj := testutil.SetupProject(t)
	p := newPipeline(t, proj)

	res, err := p.Plan(context.Background(), selection.Raw{"gr": "true"})
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Contains(t, res.Makefile.Text, "RSOLVER_FILE = hlle_rel_no_transform.cpp")
	assert.Contains(t, res.Defs.Text, "#define GENERAL_RELATIVITY 1")
	assertNoOutputs(t, proj)
}

func TestCatalog_Cached(t *testing.T) {
	proj := testutil.SetupProject(t)
	p := newPipeline(t, proj)

	first, err := p.Catalog(context.Background())
	require.NoError(t, err)

	// Later changes to the directory do not affect an existing pipeline.
	require.NoError(t, os.WriteFile(filepath.Join(proj.PgenDir, "late.cpp"), nil, 0o600))
	second, err := p.Catalog(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func assertNoOutputs(t *testing.T, proj testutil.Project) {
	t.Helper()
	assert.NoFileExists(t, proj.MakefileOutput)
	assert.NoFileExists(t, proj.DefsOutput)
}
