// Package config loads athconf settings from defaults, a project config file,
// ATHCONF_* environment variables and command-line flags.
package config

// Config holds all CLI configuration options.
//
// Path fields are absolute once loaded; relative values from the config file
// or defaults are anchored at ProjectRoot.
type Config struct {
	ProjectRoot      string `koanf:"project_dir"`
	MakefileTemplate string `koanf:"makefile_template"`
	MakefileOutput   string `koanf:"makefile_output"`
	DefsTemplate     string `koanf:"defs_template"`
	DefsOutput       string `koanf:"defs_output"`
	PgenDir          string `koanf:"pgen_dir"`
	Verbose          bool   `koanf:"verbose"`
	OutputFormat     string `koanf:"output"`

	// Options holds default selections keyed by option name ("eos", "mhd").
	// Flags given on the command line override them.
	Options map[string]string `koanf:"options"`
}

// Default configuration values, relative to the project root.
const (
	DefaultMakefileTemplate = "Makefile.in"
	DefaultMakefileOutput   = "Makefile"
	DefaultDefsTemplate     = "src/defs.hpp.in"
	DefaultDefsOutput       = "src/defs.hpp"
	DefaultPgenDir          = "src/pgen"
	DefaultOutput           = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// OptionFlagAnnotation marks flags that set a selection rather than a
// top-level config key. The loader maps such flags to "options.<name>".
const OptionFlagAnnotation = "athconf_option"
