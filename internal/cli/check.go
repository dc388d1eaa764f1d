package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipspec/pkg/pep440"
)

func (c *CLI) checkCommand() *cobra.Command {
	var pre bool

	cmd := &cobra.Command{
		Use:   "check <constraint> <version>...",
		Short: "Test versions against a PEP 440 constraint",
		Long: `Test versions against a PEP 440 constraint.

Example:
  pipspec check "~=1.16" 1.16.3 1.20 2.0.0

Pre-releases only match when --pre is given or the constraint names one.
The command exits with status 1 if any version does not satisfy the
constraint.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := pep440.ParseSpecifierSet(args[0])
			if err != nil {
				return err
			}
			versions := make([]pep440.Version, 0, len(args)-1)
			for _, raw := range args[1:] {
				v, err := pep440.ParseVersion(raw)
				if err != nil {
					return err
				}
				versions = append(versions, v)
			}

			w := cmd.OutOrStdout()
			rejected := 0
			for i, v := range versions {
				if set.Contains(v, pre) {
					printSuccess(w, "%s satisfies %s", args[i+1], set)
				} else {
					printError(w, "%s does not satisfy %s", args[i+1], set)
					rejected++
				}
			}
			if best, ok := set.Best(versions, pre); ok {
				printDetail(w, "best match: %s", best)
			}
			if rejected > 0 {
				return fail("%d of %d versions rejected", rejected, len(versions))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pre, "pre", false, "allow pre-releases")

	return cmd
}
