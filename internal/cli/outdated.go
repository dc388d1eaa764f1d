package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipspec/pkg/errors"
	"github.com/matzehuels/pipspec/pkg/outdated"
	"github.com/matzehuels/pipspec/pkg/pipfile"
)

type outdatedOpts struct {
	refresh     bool
	noCache     bool
	pre         bool
	concurrency int
	group       string
	format      string
}

func (c *CLI) outdatedCommand() *cobra.Command {
	var opts outdatedOpts

	cmd := &cobra.Command{
		Use:   "outdated [Pipfile]",
		Short: "Compare requirements with the releases on their indexes",
		Long: `Compare every index requirement with the releases on its package index.

Each requirement is looked up on the source named by its index key, or the
first [[source]] of the manifest. Yanked releases are ignored. Responses are
cached according to the cache settings; --refresh bypasses the cache.

Statuses:
  up-to-date     the newest release satisfies the constraint
  outdated       a newer release exists outside the constraint
  unsatisfiable  no release satisfies the constraint
  error          the index could not be queried
  skipped        VCS or local requirement, or invalid constraint`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format, formatText, formatJSON); err != nil {
				return err
			}
			return c.runOutdated(cmd, manifestArg(args), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached index responses")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache entirely")
	cmd.Flags().BoolVar(&opts.pre, "pre", false, "consider pre-releases")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "parallel index requests (default from settings)")
	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "only check one group: packages or dev-packages")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text or json")

	return cmd
}

func (c *CLI) runOutdated(cmd *cobra.Command, path string, opts outdatedOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.config()
	if err != nil {
		return err
	}
	m, err := readManifest(cmd, path)
	if err != nil {
		return err
	}

	backend, err := newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer backend.Close()

	check := outdated.Options{
		Concurrency: cfg.Outdated.Concurrency,
		Refresh:     opts.refresh,
		Prereleases: opts.pre,
		Logger:      logger,
	}
	if opts.concurrency > 0 {
		check.Concurrency = opts.concurrency
	}
	if opts.group != "" {
		if opts.group != pipfile.GroupPackages && opts.group != pipfile.GroupDevPackages {
			return errors.New(errors.ErrCodeInvalidInput, "unknown group %q", opts.group)
		}
		check.Groups = []string{opts.group}
	}

	factory := simpleFetchers
	if c.fetchers != nil {
		factory = c.fetchers
	}

	prog := newProgress(logger)
	var spinner *Spinner
	if opts.format == formatText {
		spinner = newSpinner(ctx, cmd.ErrOrStderr(), "Querying package indexes...")
		spinner.Start()
	}
	results, err := outdated.Check(ctx, m, factory(backend, cfg), check)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Checked %d requirements", len(results)))

	w := cmd.OutOrStdout()
	if opts.format == formatJSON {
		if results == nil {
			results = []outdated.Result{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printOutdated(w, results)
	return nil
}

func printOutdated(w io.Writer, results []outdated.Result) {
	for _, r := range results {
		label := fmt.Sprintf("%s %s", r.Name, StyleDim.Render(r.Constraint))
		switch r.Status {
		case outdated.StatusUpToDate:
			printSuccess(w, "%s %s", label, r.Latest)
		case outdated.StatusOutdated:
			printWarning(w, "%s allows %s, latest is %s", label, orNone(r.LatestAllowed), r.Latest)
		case outdated.StatusUnsatisfiable:
			printError(w, "%s matches no release (latest %s)", label, orNone(r.Latest))
		case outdated.StatusError:
			printError(w, "%s %s", label, r.Error)
		case outdated.StatusSkipped:
			if r.Error != "" {
				printInfo(w, "%s skipped: %s", label, r.Error)
			} else {
				printInfo(w, "%s skipped", r.Name)
			}
		}
	}

	counts := outdated.Summary(results)
	printNewline(w)
	printDetail(w, "%d up-to-date, %d outdated, %d unsatisfiable, %d errors, %d skipped",
		counts[outdated.StatusUpToDate], counts[outdated.StatusOutdated],
		counts[outdated.StatusUnsatisfiable], counts[outdated.StatusError], counts[outdated.StatusSkipped])
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
