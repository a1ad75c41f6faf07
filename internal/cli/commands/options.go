package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/cli/output"
	"github.com/spf13/cobra"
)

// optionView is the machine-readable form of a catalog entry.
type optionView struct {
	Name      string   `json:"name" yaml:"name"`
	Shorthand string   `json:"shorthand,omitempty" yaml:"shorthand,omitempty"`
	Kind      string   `json:"kind" yaml:"kind"`
	Default   string   `json:"default" yaml:"default"`
	Choices   []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Usage     string   `json:"usage" yaml:"usage"`
}

// NewOptionsCommand creates the options command.
func NewOptionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List configure options, their defaults and allowed values",
		Long: `List every option the configure command accepts.

Problem generators are discovered from the pgen directory (src/pgen by
default), so the list reflects the current checkout.`,
		Example: `  # Show the option table
  athconf options

  # As JSON for scripts
  athconf options -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOptions(cmd)
		},
	}
}

func runOptions(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	p, err := cmdCtx.NewPipeline()
	if err != nil {
		return err
	}
	cat, err := p.Catalog(commandContext(cmd))
	if err != nil {
		return err
	}

	opts := cat.Options()
	views := make([]optionView, len(opts))
	for i, opt := range opts {
		views[i] = optionView{
			Name:      opt.Name,
			Shorthand: opt.Shorthand,
			Kind:      opt.Kind.String(),
			Default:   opt.Default,
			Choices:   opt.Choices,
			Usage:     opt.Usage,
		}
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(views)
	case output.ModeYAML:
		return r.YAML(views)
	}

	rows := make([][]string, len(views))
	for i, v := range views {
		rows[i] = []string{flagName(v), v.Kind, v.Default, allowed(v), v.Usage}
	}
	r.Header(1, fmt.Sprintf("Configure options (%d total)", len(views)))
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println("")
	}
	r.Table([]string{"Flag", "Kind", "Default", "Allowed", "Description"}, rows)
	return nil
}

func flagName(v optionView) string {
	if v.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", v.Shorthand, v.Name)
	}
	return "--" + v.Name
}

func allowed(v optionView) string {
	switch v.Kind {
	case catalog.KindBool.String():
		return "true, false"
	case catalog.KindInt.String():
		return ">= 0"
	}
	if len(v.Choices) == 0 {
		return "(none found)"
	}
	return strings.Join(v.Choices, ", ")
}
