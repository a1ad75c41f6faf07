package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

var outputFormats = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (choose from %s)", c.OutputFormat, strings.Join(outputFormats, ", "))
	}
	for name, path := range map[string]string{
		"makefile_template": c.MakefileTemplate,
		"makefile_output":   c.MakefileOutput,
		"defs_template":     c.DefsTemplate,
		"defs_output":       c.DefsOutput,
		"pgen_dir":          c.PgenDir,
	} {
		if path == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}

// ValidateProject checks that the project directory exists.
func (c *Config) ValidateProject() error {
	info, err := os.Stat(c.ProjectRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("project directory does not exist: %s\nHint: run from an Athena++ checkout or pass --project-dir", c.ProjectRoot)
	}
	return nil
}
