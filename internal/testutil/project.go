package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MakefileTemplate is a build-control template referencing every Makefile token.
const MakefileTemplate = `# Generated from Makefile.in

CXX := @COMPILER_CHOICE@
CPPFLAGS := @COMPILER_FLAGS@

PROBLEM_FILE = @PROBLEM_FILE@
COORDINATES_FILE = @COORDINATES_FILE@
EOS_FILE = @EOS_FILE@
RSOLVER_FILE = @RSOLVER_FILE@
RSOLVER_DIR = @RSOLVER_DIR@
RECONSTRUCT_FILE = @RECONSTRUCT_FILE@
FLUID_INT_FILE = @FLUID_INT_FILE@

SRC_FILES := src/pgen/$(PROBLEM_FILE) \
	src/coordinates/$(COORDINATES_FILE) \
	src/fluid/eos/$(EOS_FILE) \
	src/fluid/rsolvers/$(RSOLVER_DIR)$(RSOLVER_FILE) \
	src/reconstruct/$(RECONSTRUCT_FILE) \
	src/fluid/integrators/$(FLUID_INT_FILE)

all: dirs
	@echo building $(SRC_FILES)
`

// DefsTemplate is a constants header template referencing every header token.
const DefsTemplate = `#ifndef DEFINITIONS_HPP
#define DEFINITIONS_HPP

#define PROBLEM_GENERATOR "@PROBLEM@"
#define COORDINATE_SYSTEM "@COORDINATE_SYSTEM@"
#define NON_BAROTROPIC_EOS @NON_BAROTROPIC_EOS@
#define NFLUID @NFLUID_VARIABLES@
#define RIEMANN_SOLVER "@RSOLVER@"
#define MAGNETIC_FIELDS_ENABLED @MAGNETIC_FIELDS_ENABLED@
#define NFIELD @NFIELD_VARIABLES@
#define NWAVE @NWAVE_VALUE@
#define RELATIVISTIC_DYNAMICS @RELATIVISTIC_DYNAMICS@
#define GENERAL_RELATIVITY @GENERAL_RELATIVITY@
#define RECONSTRUCTION_METHOD "@RECONSTRUCT@"
#define FLUID_TIME_INTEGRATOR "@FLUID_INTEGRATOR@"
#define COMPILED_WITH "@COMPILER_CHOICE@"
#define COMPILED_WITH_OPTIONS "@COMPILER_FLAGS@"
#define @MPI_OPTION@
#define @OPENMP_OPTION@
#define @DEBUG@
#define NIFOV @NUM_IFOV@
#define ID_LENGTH @ID_LENGTH@

#endif
`

// Problems are the problem generators created by SetupProject.
var Problems = []string{"blast", "orszag_tang", "shock_tube"}

// Project holds the paths of a scaffolded source tree.
type Project struct {
	Root             string
	MakefileTemplate string
	MakefileOutput   string
	DefsTemplate     string
	DefsOutput       string
	PgenDir          string
}

// SetupProject creates a temporary source tree with both templates and a
// few problem generators.
func SetupProject(t testing.TB) Project {
	t.Helper()

	root := t.TempDir()
	p := Project{
		Root:             root,
		MakefileTemplate: filepath.Join(root, "Makefile.in"),
		MakefileOutput:   filepath.Join(root, "Makefile"),
		DefsTemplate:     filepath.Join(root, "src", "defs.hpp.in"),
		DefsOutput:       filepath.Join(root, "src", "defs.hpp"),
		PgenDir:          filepath.Join(root, "src", "pgen"),
	}

	if err := os.MkdirAll(p.PgenDir, 0o750); err != nil {
		t.Fatalf("failed to create directory %s: %v", p.PgenDir, err)
	}

	files := map[string]string{
		p.MakefileTemplate: MakefileTemplate,
		p.DefsTemplate:     DefsTemplate,
	}
	for _, name := range Problems {
		files[filepath.Join(p.PgenDir, name+".cpp")] = "// problem generator " + name + "\n"
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", path, err)
		}
	}

	return p
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
