package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipspec/pkg/pipfile"
)

func (c *CLI) diffCommand() *cobra.Command {
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two Pipfiles ignoring order and formatting",
		Long: `Compare two Pipfiles.

Package names are compared after PEP 503 normalisation, constraints after
sorting their clauses and extras ignoring case, so reordering or
reformatting a manifest produces no changes. With --exit-code the command
exits with status 1 when the manifests differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readManifest(cmd, args[0])
			if err != nil {
				return err
			}
			b, err := readManifest(cmd, args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			changes := pipfile.Diff(a, b)
			if len(changes) == 0 {
				printSuccess(w, "manifests are equivalent")
				return nil
			}
			for _, ch := range changes {
				name := fmt.Sprintf("%s.%s", ch.Group, ch.Name)
				switch ch.Kind {
				case pipfile.Added:
					fmt.Fprintf(w, "%s %s = %s\n", styleIconSuccess.Render(iconAdded), name, ch.New)
				case pipfile.Removed:
					fmt.Fprintf(w, "%s %s = %s\n", styleIconError.Render(iconRemoved), name, ch.Old)
				case pipfile.Changed:
					fmt.Fprintf(w, "%s %s: %s -> %s\n", styleIconWarning.Render(iconChanged), name, ch.Old, ch.New)
				}
			}
			if exitCode {
				return fail("%d changes", len(changes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit with status 1 if the manifests differ")

	return cmd
}
