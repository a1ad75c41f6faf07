package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/cli/config"
	"github.com/leapstack-labs/athconf/internal/cli/output"
	"github.com/leapstack-labs/athconf/internal/pipeline"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(commandContext(cmd))
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// NewPipeline builds a pipeline over the configured project paths.
func (c *CommandContext) NewPipeline() (*pipeline.Pipeline, error) {
	if err := c.Cfg.ValidateProject(); err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Config{
		Plugins: catalog.DirRegistry{Dir: c.Cfg.PgenDir, Ext: catalog.DefaultPluginExt},
		Paths:   c.Paths(),
		Logger:  c.Logger,
	})
}

// Paths returns the configured template and output locations.
func (c *CommandContext) Paths() pipeline.Paths {
	return pipeline.Paths{
		MakefileTemplate: c.Cfg.MakefileTemplate,
		MakefileOutput:   c.Cfg.MakefileOutput,
		DefsTemplate:     c.Cfg.DefsTemplate,
		DefsOutput:       c.Cfg.DefsOutput,
	}
}

// getConfig returns the current configuration.
// Commands executed without the root command load it on demand from their
// own flags.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.LoadConfig(cfgFile, cmd.Flags())
}

// commandContext returns cmd's context, or a background context when the
// command runs outside Execute (flag completion in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
