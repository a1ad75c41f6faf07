package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter athconf.yaml",
		Long: `Write an athconf.yaml with the default template paths and option
selections into an Athena++ checkout.

Edit the "options:" section to change what "athconf configure" builds by
default. Flags and ATHCONF_OPTIONS_* variables still override it.`,
		Example: `  # Initialize in current directory
  athconf init

  # Initialize another checkout
  athconf init ~/src/athena

  # Force overwrite existing config
  athconf init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("directory does not exist: %s", dir)
	}

	// Check if config already exists
	configPath := filepath.Join(dir, "athconf.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("athconf.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	// List created files
	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.StatusLine(filepath.Join(dir, f), "success", "")
	}

	r.Println("")
	r.Success("athconf initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Adjust the options in athconf.yaml")
	r.Println("  2. Run 'athconf doctor' to check the templates")
	r.Println("  3. Run 'athconf configure' to write the Makefile and src/defs.hpp")

	return nil
}
