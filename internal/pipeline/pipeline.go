// Package pipeline runs the configure steps end to end: resolve the raw
// options, reject incompatible combinations, derive template values, render
// both templates and write the results.
//
// A run is single-pass. Validation happens before any template is read, and
// nothing is written unless both templates rendered cleanly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/compat"
	"github.com/leapstack-labs/athconf/internal/derive"
	"github.com/leapstack-labs/athconf/internal/selection"
	"github.com/leapstack-labs/athconf/internal/sink"
	"github.com/leapstack-labs/athconf/internal/template"
)

// Paths locates the two templates and their outputs.
type Paths struct {
	MakefileTemplate string
	MakefileOutput   string
	DefsTemplate     string
	DefsOutput       string
}

// Config holds pipeline configuration.
type Config struct {
	// Plugins lists the available problem generators (required)
	Plugins catalog.PluginRegistry
	// Paths of templates and generated files
	Paths Paths
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Pipeline resolves and renders one configuration.
type Pipeline struct {
	plugins catalog.PluginRegistry
	paths   Paths
	logger  *slog.Logger
	sink    *sink.Sink
	catalog *catalog.Catalog
}

// Result describes a completed run.
type Result struct {
	Selection selection.Selection
	Derived   derive.Result
	Makefile  template.Output
	Defs      template.Output
	// Written is false for dry runs.
	Written bool
}

// New creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Plugins == nil {
		return nil, errors.New("pipeline: plugin registry is required")
	}
	if cfg.Paths.MakefileTemplate == "" || cfg.Paths.DefsTemplate == "" {
		return nil, errors.New("pipeline: template paths are required")
	}
	if cfg.Paths.MakefileOutput == "" || cfg.Paths.DefsOutput == "" {
		return nil, errors.New("pipeline: output paths are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{
		plugins: cfg.Plugins,
		paths:   cfg.Paths,
		logger:  logger,
		sink:    sink.New(logger),
	}, nil
}

// Catalog returns the option catalog, listing problem generators on first use.
func (p *Pipeline) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	if p.catalog != nil {
		return p.catalog, nil
	}
	cat, err := catalog.New(ctx, p.plugins)
	if err != nil {
		return nil, &sink.ResourceError{Op: "list", Path: "problem generators", Err: err}
	}
	p.catalog = cat
	return cat, nil
}

// Run resolves raw, renders both templates and writes them.
func (p *Pipeline) Run(ctx context.Context, raw selection.Raw) (*Result, error) {
	res, err := p.Plan(ctx, raw)
	if err != nil {
		return nil, err
	}

	err = p.sink.Write(ctx, []sink.Artifact{
		{Path: p.paths.DefsOutput, Content: res.Defs.Text},
		{Path: p.paths.MakefileOutput, Content: res.Makefile.Text},
	})
	if err != nil {
		return nil, err
	}
	res.Written = true

	p.logger.Info("configuration written",
		slog.String("makefile", p.paths.MakefileOutput),
		slog.String("defs", p.paths.DefsOutput))
	return res, nil
}

// Plan does everything Run does except write files.
func (p *Pipeline) Plan(ctx context.Context, raw selection.Raw) (*Result, error) {
	sel, err := p.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	derived := derive.Derive(sel)
	p.logger.Debug("derived build values",
		slog.String("eos_file", derived.Makefile.EOSFile),
		slog.String("rsolver_file", derived.Makefile.RSolverFile),
		slog.String("compile", derived.Makefile.CompileCommand()))

	defsText, err := sink.ReadFile(p.paths.DefsTemplate)
	if err != nil {
		return nil, err
	}
	makeText, err := sink.ReadFile(p.paths.MakefileTemplate)
	if err != nil {
		return nil, err
	}

	defs, err := p.render(defsText, p.paths.DefsTemplate, derived.Definitions.Map())
	if err != nil {
		return nil, err
	}
	makefile, err := p.render(makeText, p.paths.MakefileTemplate, derived.Makefile.Map())
	if err != nil {
		return nil, err
	}

	return &Result{
		Selection: sel,
		Derived:   derived,
		Makefile:  makefile,
		Defs:      defs,
	}, nil
}

// Resolve builds the validated selection for raw without touching templates.
func (p *Pipeline) Resolve(ctx context.Context, raw selection.Raw) (selection.Selection, error) {
	cat, err := p.Catalog(ctx)
	if err != nil {
		return selection.Selection{}, err
	}

	sel, err := selection.Resolve(ctx, cat, raw)
	if err != nil {
		return selection.Selection{}, err
	}
	if err := compat.Validate(sel); err != nil {
		return selection.Selection{}, err
	}

	p.logger.Debug("resolved selection",
		slog.String("prob", sel.Problem),
		slog.String("eos", sel.EOS),
		slog.String("flux", sel.Flux),
		slog.Bool("mhd", sel.Magnetic))
	return sel, nil
}

func (p *Pipeline) render(text, file string, values map[string]string) (template.Output, error) {
	out, err := template.RenderString(text, file, values)
	if err != nil {
		return template.Output{}, fmt.Errorf("rendering %s: %w", file, err)
	}
	if len(out.Unused) > 0 {
		p.logger.Debug("template does not reference some values",
			slog.String("template", file),
			slog.Any("unused", out.Unused))
	}
	return out, nil
}
