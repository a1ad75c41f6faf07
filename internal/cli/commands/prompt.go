package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/selection"
)

// ErrAborted is returned when the user interrupts an interactive prompt.
var ErrAborted = errors.New("configuration aborted")

// Prompter asks the user for option values. Tests substitute a scripted one.
type Prompter interface {
	Select(ctx context.Context, message string, options []string, def string) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Input(ctx context.Context, message, def string, validate func(string) error) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Select(ctx context.Context, message string, options []string, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if d := selectDefault(options, def); d != "" {
		prompt.Default = d
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Input(ctx context.Context, message, def string, validate func(string) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: message,
		Default: def,
	}
	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

// selectDefault returns def when it is one of options. survey rejects a
// Select whose default is not an option.
func selectDefault(options []string, def string) string {
	if slices.Contains(options, def) {
		return def
	}
	return ""
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

// promptMissing asks for every option absent from raw, in catalog order.
// Values already present are kept as given.
func promptMissing(ctx context.Context, p Prompter, cat *catalog.Catalog, raw selection.Raw) (selection.Raw, error) {
	out := make(selection.Raw, len(raw))
	for name, value := range raw {
		out[name] = value
	}

	for _, opt := range cat.Options() {
		if _, ok := out[opt.Name]; ok {
			continue
		}
		message := opt.Usage

		switch opt.Kind {
		case catalog.KindEnum:
			if len(opt.Choices) <= 1 {
				continue
			}
			v, err := p.Select(ctx, message, opt.Choices, opt.Default)
			if err != nil {
				return nil, err
			}
			out[opt.Name] = v
		case catalog.KindBool:
			v, err := p.Confirm(ctx, message, opt.DefaultBool())
			if err != nil {
				return nil, err
			}
			out[opt.Name] = strconv.FormatBool(v)
		case catalog.KindInt:
			v, err := p.Input(ctx, message, opt.Default, nonNegativeInt)
			if err != nil {
				return nil, err
			}
			out[opt.Name] = v
		}
	}
	return out, nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("%q is not a non-negative integer", s)
	}
	return nil
}
