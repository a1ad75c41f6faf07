package commands

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/cli/config"
	"github.com/leapstack-labs/athconf/internal/selection"
	"github.com/spf13/cobra"
)

// ConfigureOptions holds options for the configure command.
type ConfigureOptions struct {
	DryRun      bool
	Interactive bool
	// Prompter answers --interactive questions. Defaults to terminal prompts.
	Prompter Prompter
}

// NewConfigureCommand creates the configure command.
func NewConfigureCommand() *cobra.Command {
	return newConfigureCommand(&ConfigureOptions{})
}

func newConfigureCommand(opts *ConfigureOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Generate the Makefile and src/defs.hpp for a build",
		Long: `Select the physics, numerics and build options for an Athena++ build and
write the Makefile and the compile-time constants header from their templates.

Every option has a default. Options set in athconf.yaml (under "options:") or
through ATHCONF_OPTIONS_<NAME> apply unless a flag overrides them.

Nothing is written when an option is unknown, a combination is not allowed,
or a template references a value that does not exist.`,
		Example: `  # Default hydrodynamics build
  athconf configure

  # MHD with the HLLD solver, compiled with MPI and OpenMP
  athconf configure -b --flux hlld --mpi --omp

  # Preview the generated files without writing them
  athconf configure --prob blast --dry-run

  # Choose the remaining options interactively
  athconf configure --interactive`,
		Aliases: []string{"conf"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigure(cmd, opts)
		},
	}

	registerOptionFlags(cmd)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Render the files and print them without writing")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt for options not given on the command line")

	return cmd
}

// registerOptionFlags adds one flag per catalog option. The flags are marked
// so the config loader files their values under "options".
func registerOptionFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	for _, opt := range catalog.Declared() {
		switch opt.Kind {
		case catalog.KindBool:
			flags.BoolP(opt.Name, opt.Shorthand, opt.DefaultBool(), opt.Usage)
		case catalog.KindInt:
			flags.IntP(opt.Name, opt.Shorthand, opt.DefaultInt(), opt.Usage)
		default:
			flags.StringP(opt.Name, opt.Shorthand, opt.Default, opt.Usage)
			_ = cmd.RegisterFlagCompletionFunc(opt.Name, completeChoices(opt))
		}
		_ = flags.SetAnnotation(opt.Name, config.OptionFlagAnnotation, []string{"true"})
	}
}

// completeChoices lists an enumerated option's values. Problem generators are
// read from the pgen directory the flags given so far point at.
func completeChoices(opt catalog.Option) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		if !opt.Discovered {
			return opt.Choices, cobra.ShellCompDirectiveNoFileComp
		}
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		names, err := catalog.DirRegistry{Dir: cfg.PgenDir}.ListAvailable(commandContext(cmd))
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

func runConfigure(cmd *cobra.Command, opts *ConfigureOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	p, err := cmdCtx.NewPipeline()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	raw := selection.Raw(maps.Clone(cmdCtx.Cfg.Options))
	if raw == nil {
		raw = selection.Raw{}
	}

	if opts.Interactive {
		cat, err := p.Catalog(ctx)
		if err != nil {
			return err
		}
		prompter := opts.Prompter
		if prompter == nil {
			prompter = surveyPrompter{}
		}
		raw, err = promptMissing(ctx, prompter, cat, raw)
		if err != nil {
			return err
		}
	}

	cmdCtx.Logger.Debug("configuring",
		slog.Any("options", raw),
		slog.Bool("dry_run", opts.DryRun))

	run := p.Run
	if opts.DryRun {
		run = p.Plan
	}
	res, err := run(ctx, raw)
	if err != nil {
		return fmt.Errorf("configure: %w", err)
	}

	return printSummary(cmdCtx.Renderer, res, cmdCtx.Paths())
}
