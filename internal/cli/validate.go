package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipspec/pkg/pipfile"
)

type validateOpts struct {
	strict bool
	format string
}

// validateResult is the JSON shape of a validation run.
type validateResult struct {
	Path   string          `json:"path"`
	Valid  bool            `json:"valid"`
	Issues []pipfile.Issue `json:"issues"`
}

func (c *CLI) validateCommand() *cobra.Command {
	var opts validateOpts

	cmd := &cobra.Command{
		Use:   "validate [Pipfile]",
		Short: "Check a Pipfile for schema, name and constraint errors",
		Long: `Validate a Pipfile.

Errors cover malformed sources, invalid package names, duplicate packages,
unparsable PEP 440 constraints and references to undeclared indexes.
Warnings cover insecure sources and packages listed in both groups.
With --strict, warnings count as errors.

The command exits with status 1 when the manifest has errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format, formatText, formatJSON); err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("strict") {
				opts.strict = cfg.Strict
			}
			return c.runValidate(cmd, manifestArg(args), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "treat warnings as errors")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text or json")

	return cmd
}

func (c *CLI) runValidate(cmd *cobra.Command, path string, opts validateOpts) error {
	m, err := readManifest(cmd, path)
	if err != nil {
		return err
	}
	report := pipfile.Validate(m, pipfile.Options{Strict: opts.strict})
	loggerFromContext(cmd.Context()).Debug("validated", "path", path, "issues", len(report.Issues))

	w := cmd.OutOrStdout()
	if opts.format == formatJSON {
		issues := report.Issues
		if issues == nil {
			issues = []pipfile.Issue{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(validateResult{Path: path, Valid: report.Valid(), Issues: issues}); err != nil {
			return err
		}
	} else {
		for _, issue := range report.Issues {
			if issue.Severity == pipfile.SeverityError {
				printError(w, "%s %s", StyleError.Render(issue.Path), issue.Message)
			} else {
				printWarning(w, "%s %s", issue.Path, issue.Message)
			}
		}
		if report.Valid() {
			printSuccess(w, "%s is valid (%d warnings)", path, len(report.Warnings()))
		}
	}

	if !report.Valid() {
		return fail("%s: %d errors", path, len(report.Errors()))
	}
	return nil
}
