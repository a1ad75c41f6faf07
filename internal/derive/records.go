package derive

import "strconv"

// Token names in the constants header template.
const (
	TokProblem               = "PROBLEM"
	TokCoordinateSystem      = "COORDINATE_SYSTEM"
	TokNonBarotropicEOS      = "NON_BAROTROPIC_EOS"
	TokNFluidVariables       = "NFLUID_VARIABLES"
	TokRSolver               = "RSOLVER"
	TokMagneticFieldsEnabled = "MAGNETIC_FIELDS_ENABLED"
	TokNFieldVariables       = "NFIELD_VARIABLES"
	TokNWaveValue            = "NWAVE_VALUE"
	TokRelativisticDynamics  = "RELATIVISTIC_DYNAMICS"
	TokGeneralRelativity     = "GENERAL_RELATIVITY"
	TokReconstruct           = "RECONSTRUCT"
	TokFluidIntegrator       = "FLUID_INTEGRATOR"
	TokCompilerChoice        = "COMPILER_CHOICE"
	TokCompilerFlags         = "COMPILER_FLAGS"
	TokMPIOption             = "MPI_OPTION"
	TokDebug                 = "DEBUG"
	TokOpenMPOption          = "OPENMP_OPTION"
	TokNumIFOV               = "NUM_IFOV"
	TokIDLength              = "ID_LENGTH"
)

// Token names in the Makefile template. COMPILER_CHOICE and COMPILER_FLAGS
// exist in both namespaces but may carry different values.
const (
	TokProblemFile     = "PROBLEM_FILE"
	TokCoordinatesFile = "COORDINATES_FILE"
	TokEOSFile         = "EOS_FILE"
	TokRSolverFile     = "RSOLVER_FILE"
	TokRSolverDir      = "RSOLVER_DIR"
	TokReconstructFile = "RECONSTRUCT_FILE"
	TokFluidIntFile    = "FLUID_INT_FILE"
)

// Token is one name/value pair ready for substitution.
type Token struct {
	Name  string
	Value string
}

// Definitions holds every value of the compile-time constants header.
type Definitions struct {
	Problem           string
	CoordinateSystem  string
	NonBarotropicEOS  bool
	NFluidVariables   int
	RSolver           string
	MagneticFields    bool
	NFieldVariables   int
	NWaves            int
	Relativistic      bool
	GeneralRelativity bool
	Reconstruct       string
	FluidIntegrator   string
	CompilerChoice    string
	CompilerFlags     string
	MPI               bool
	Debug             bool
	OpenMP            bool
	NumIFOV           int
	IDLength          int
}

// Tokens returns the header tokens in a fixed order.
func (d Definitions) Tokens() []Token {
	return []Token{
		{TokProblem, d.Problem},
		{TokCoordinateSystem, d.CoordinateSystem},
		{TokNonBarotropicEOS, flag(d.NonBarotropicEOS)},
		{TokNFluidVariables, strconv.Itoa(d.NFluidVariables)},
		{TokRSolver, d.RSolver},
		{TokMagneticFieldsEnabled, flag(d.MagneticFields)},
		{TokNFieldVariables, strconv.Itoa(d.NFieldVariables)},
		{TokNWaveValue, strconv.Itoa(d.NWaves)},
		{TokRelativisticDynamics, flag(d.Relativistic)},
		{TokGeneralRelativity, flag(d.GeneralRelativity)},
		{TokReconstruct, d.Reconstruct},
		{TokFluidIntegrator, d.FluidIntegrator},
		{TokCompilerChoice, d.CompilerChoice},
		{TokCompilerFlags, d.CompilerFlags},
		{TokMPIOption, macro(d.MPI, "MPI_PARALLEL")},
		{TokDebug, macro(d.Debug, "DEBUG")},
		{TokOpenMPOption, macro(d.OpenMP, "OPENMP_PARALLEL")},
		{TokNumIFOV, strconv.Itoa(d.NumIFOV)},
		{TokIDLength, strconv.Itoa(d.IDLength)},
	}
}

// Map returns the header tokens keyed by name.
func (d Definitions) Map() map[string]string {
	return toMap(d.Tokens())
}

// Makefile holds every value of the build-control template.
// The *File fields hold bare stems until the extension step runs.
type Makefile struct {
	ProblemFile     string
	CoordinatesFile string
	EOSFile         string
	RSolverFile     string
	RSolverDir      string
	ReconstructFile string
	FluidIntFile    string
	CompilerChoice  string
	CompilerFlags   string
}

// Tokens returns the Makefile tokens in a fixed order.
func (m Makefile) Tokens() []Token {
	return []Token{
		{TokProblemFile, m.ProblemFile},
		{TokCoordinatesFile, m.CoordinatesFile},
		{TokEOSFile, m.EOSFile},
		{TokRSolverFile, m.RSolverFile},
		{TokRSolverDir, m.RSolverDir},
		{TokReconstructFile, m.ReconstructFile},
		{TokFluidIntFile, m.FluidIntFile},
		{TokCompilerChoice, m.CompilerChoice},
		{TokCompilerFlags, m.CompilerFlags},
	}
}

// Map returns the Makefile tokens keyed by name.
func (m Makefile) Map() map[string]string {
	return toMap(m.Tokens())
}

// CompileCommand is the compiler invocation followed by its flags.
func (m Makefile) CompileCommand() string {
	return m.CompilerChoice + " " + m.CompilerFlags
}

// Result pairs the two records produced for one selection.
type Result struct {
	Definitions Definitions
	Makefile    Makefile
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func macro(b bool, name string) string {
	if b {
		return name
	}
	return "NOT_" + name
}

func toMap(tokens []Token) map[string]string {
	m := make(map[string]string, len(tokens))
	for _, t := range tokens {
		m[t.Name] = t.Value
	}
	return m
}
