package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/athconf/internal/catalog"
	"github.com/leapstack-labs/athconf/internal/cli/config"
	"github.com/leapstack-labs/athconf/internal/cli/output"
	"github.com/leapstack-labs/athconf/internal/compat"
	"github.com/leapstack-labs/athconf/internal/derive"
	"github.com/leapstack-labs/athconf/internal/selection"
	"github.com/leapstack-labs/athconf/internal/sink"
	"github.com/leapstack-labs/athconf/internal/template"
	"github.com/spf13/cobra"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the project can be configured",
		Long: `Check the project layout, both templates and the configured options
without writing anything.

The doctor command reports:
- Project summary (root, config file, problem generators)
- Health checks grouped by category (Project, Templates, Configuration)
- Health score (0-100)
- Actionable recommendations

Template checks flag every @NAME@ token that the configure step would leave
unresolved, including tokens that belong to the other template.`,
		Example: `  # Run health check
  athconf doctor

  # Output as JSON
  athconf doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary" yaml:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks" yaml:"health_checks"`
	Score           int            `json:"score" yaml:"score"`
	Recommendations []string       `json:"recommendations" yaml:"recommendations"`
	IssueCount      int            `json:"issue_count" yaml:"issue_count"`
}

// ProjectSummary contains project-level facts.
type ProjectSummary struct {
	Root              string `json:"root" yaml:"root"`
	ConfigFile        string `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	ProblemGenerators int    `json:"problem_generators" yaml:"problem_generators"`
	MakefileTemplate  string `json:"makefile_template" yaml:"makefile_template"`
	DefsTemplate      string `json:"defs_template" yaml:"defs_template"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id" yaml:"rule_id"`
	Name       string   `json:"name" yaml:"name"`
	Group      string   `json:"group" yaml:"group"`
	Status     string   `json:"status" yaml:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count" yaml:"issue_count"`
	Details    []string `json:"details,omitempty" yaml:"details,omitempty"`
}

// severity of a failing check.
const (
	severityWarn  = "warn"
	severityError = "error"
)

func newCheck(id, name, group, severity string, issues []string) HealthCheck {
	status := "pass"
	if len(issues) > 0 {
		status = severity
	}
	return HealthCheck{
		RuleID:     id,
		Name:       name,
		Group:      group,
		Status:     status,
		IssueCount: len(issues),
		Details:    issues,
	}
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	out := buildDoctorOutput(commandContext(cmd), cmdCtx.Cfg)

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeYAML:
		return r.YAML(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func buildDoctorOutput(ctx context.Context, cfg *config.Config) *DoctorOutput {
	summary := ProjectSummary{
		Root:             cfg.ProjectRoot,
		ConfigFile:       config.GetConfigFileUsed(),
		MakefileTemplate: cfg.MakefileTemplate,
		DefsTemplate:     cfg.DefsTemplate,
	}

	var checks []HealthCheck

	// Project layout
	var projectIssues []string
	if err := cfg.ValidateProject(); err != nil {
		projectIssues = append(projectIssues, firstLine(err.Error()))
	}
	checks = append(checks, newCheck("P01", "Project directory exists", "project", severityError, projectIssues))

	generators, listErr := catalog.DirRegistry{Dir: cfg.PgenDir}.ListAvailable(ctx)
	summary.ProblemGenerators = len(generators)
	var pgenIssues []string
	switch {
	case listErr != nil:
		pgenIssues = append(pgenIssues, listErr.Error())
	case len(generators) == 0:
		pgenIssues = append(pgenIssues, fmt.Sprintf("no *%s files in %s", catalog.DefaultPluginExt, cfg.PgenDir))
	}
	checks = append(checks, newCheck("P02", "Problem generators discovered", "project", severityError, pgenIssues))

	var defaultIssues []string
	problem := catalog.DefaultProblem
	if v, ok := cfg.Options[catalog.Problem]; ok {
		problem = v
	}
	if listErr == nil && len(generators) > 0 && !slices.Contains(generators, problem) {
		defaultIssues = append(defaultIssues, fmt.Sprintf("problem generator %q is not in %s", problem, cfg.PgenDir))
	}
	checks = append(checks, newCheck("P03", "Selected problem generator exists", "project", severityWarn, defaultIssues))

	// Templates
	makeValues := derive.Makefile{}.Map()
	defsValues := derive.Definitions{}.Map()
	checks = append(checks, templateChecks("T01", "Makefile template", cfg.MakefileTemplate, makeValues, defsValues)...)
	checks = append(checks, templateChecks("T04", "Constants header template", cfg.DefsTemplate, defsValues, makeValues)...)

	// Configured options
	var optionIssues []string
	if listErr == nil {
		if err := validateOptions(ctx, generators, cfg.Options); err != nil {
			optionIssues = append(optionIssues, err.Error())
		}
	}
	checks = append(checks, newCheck("C01", "Configured options are valid", "configuration", severityError, optionIssues))

	var keyIssues []string
	for _, key := range config.UnusedKeys() {
		keyIssues = append(keyIssues, fmt.Sprintf("unknown config key %q", key))
	}
	checks = append(checks, newCheck("C02", "Config file keys are recognized", "configuration", severityWarn, keyIssues))

	// Sort health checks by group then by rule ID
	sort.SliceStable(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].RuleID < checks[j].RuleID
	})

	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

// templateChecks returns three checks for one template starting at firstID:
// readable, every token resolves, every value is referenced.
func templateChecks(firstID, label, path string, own, other map[string]string) []HealthCheck {
	ids := [3]string{firstID, nextID(firstID, 1), nextID(firstID, 2)}

	var readIssues, tokenIssues, unusedIssues []string
	text, err := sink.ReadFile(path)
	if err != nil {
		readIssues = append(readIssues, err.Error())
	} else {
		_, err := template.RenderString(text, path, own)
		var unresolved *template.UnresolvedTokenError
		if errors.As(err, &unresolved) {
			for _, occ := range unresolved.Occurrences {
				detail := occ.String()
				if _, ok := other[occ.Name]; ok {
					detail += " belongs to the other template"
				}
				tokenIssues = append(tokenIssues, detail)
			}
		}

		referenced := template.Names(text)
		names := make([]string, 0, len(own))
		for name := range own {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !slices.Contains(referenced, name) {
				unusedIssues = append(unusedIssues, fmt.Sprintf("@%s@ is never used", name))
			}
		}
	}

	return []HealthCheck{
		newCheck(ids[0], label+" is readable", "templates", severityError, readIssues),
		newCheck(ids[1], label+" tokens resolve", "templates", severityError, tokenIssues),
		newCheck(ids[2], label+" uses every value", "templates", severityWarn, unusedIssues),
	}
}

// nextID increments the numeric suffix of a rule ID ("T01" -> "T02").
func nextID(id string, n int) string {
	var num int
	_, _ = fmt.Sscanf(id[1:], "%d", &num)
	return fmt.Sprintf("%c%02d", id[0], num+n)
}

func validateOptions(ctx context.Context, generators []string, raw map[string]string) error {
	cat, err := catalog.New(ctx, catalog.StaticRegistry(generators))
	if err != nil {
		return err
	}
	sel, err := selection.Resolve(ctx, cat, selection.Raw(raw))
	if err != nil {
		return err
	}
	return compat.Validate(sel)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// calculateHealthScore computes a health score from 0-100.
// Each issue costs five points; errors count double.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case severityError:
			score -= check.IssueCount * 10
		case severityWarn:
			score -= check.IssueCount * 5
		}
	}
	return max(score, 0)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		if rec := getRecommendation(check.RuleID); rec != "" && !slices.Contains(recommendations, rec) {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific rule.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "P01":
		return "Run athconf from the top of an Athena++ checkout or pass --project-dir"
	case "P02":
		return "Point --pgen-dir at the directory holding the problem generator sources"
	case "P03":
		return "Pick an existing problem generator with --prob or in athconf.yaml"
	case "T01", "T04":
		return "Restore the template or set --makefile-template / --defs-template"
	case "T02", "T05":
		return "Remove or rename template tokens that have no value"
	case "T03", "T06":
		return "Unused values are harmless; reference them if the build needs them"
	case "C01":
		return "Fix the options in athconf.yaml or ATHCONF_OPTIONS_* variables"
	case "C02":
		return "Check athconf.yaml for misspelled keys"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header.Render("athconf Project Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	// Project Summary
	r.Println(styles.Bold.Render("Project Summary"))
	r.Printf("   Root: %s\n", out.Summary.Root)
	if out.Summary.ConfigFile != "" {
		r.Printf("   Config: %s\n", out.Summary.ConfigFile)
	}
	r.Printf("   Problem generators: %d\n", out.Summary.ProblemGenerators)
	r.Println("")

	// Health Checks grouped by category
	r.Println(styles.Bold.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + output.Title(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		name := fmt.Sprintf("%s: %s", check.RuleID, check.Name)
		detail := ""
		if check.IssueCount > 0 {
			detail = fmt.Sprintf("(%d issues)", check.IssueCount)
		}
		r.Printf("   ")
		r.StatusLine(name, check.Status, detail)

		// Show first 3 details for issues
		for i, d := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + d))
		}
	}
	r.Println("")

	// Health Score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println(styles.Bold.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println(output.FormatHeader(1, "athconf Project Health Report"))
	r.Println("")

	// Project Summary
	r.Println(output.FormatHeader(2, "Project Summary"))
	r.Println("")
	r.Println(output.FormatKeyValue("Root", out.Summary.Root))
	if out.Summary.ConfigFile != "" {
		r.Println(output.FormatKeyValue("Config", out.Summary.ConfigFile))
	}
	r.Println(output.FormatKeyValue("Problem generators", fmt.Sprint(out.Summary.ProblemGenerators)))
	r.Println("")

	// Health Checks
	r.Println(output.FormatHeader(2, "Health Checks"))
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(output.FormatHeader(3, output.Title(currentGroup)))
			r.Println("")
		}

		detail := ""
		if check.IssueCount > 0 {
			detail = fmt.Sprintf("%d issues", check.IssueCount)
		}
		r.StatusLine(fmt.Sprintf("%s %s", check.RuleID, check.Name), check.Status, detail)
		for _, d := range check.Details {
			r.Printf("  - %s\n", d)
		}
	}
	r.Println("")

	// Health Score
	r.Println(output.FormatHeader(2, "Health Score"))
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println(output.FormatHeader(2, "Recommendations"))
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
