package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipspec/pkg/errors"
	"github.com/matzehuels/pipspec/pkg/pipfile"
)

type fmtOpts struct {
	write bool
	check bool
}

func (c *CLI) fmtCommand() *cobra.Command {
	var opts fmtOpts

	cmd := &cobra.Command{
		Use:   "fmt [Pipfile]",
		Short: "Rewrite a Pipfile in canonical form",
		Long: `Rewrite a Pipfile in canonical form.

Sections are written in a fixed order, requirements keep their order, and
table requirements become single-line inline tables. Keys and sections
pipspec does not model, such as custom package categories, are kept. The
output parses back to an equivalent manifest.

A manifest holding values of the wrong type (verify_ssl = "false",
version = 1.16) is refused and the file is left untouched.

By default the result is printed. --write replaces the file in place and
--check exits with status 1 if the file is not already canonical.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.write && opts.check {
				return errors.New(errors.ErrCodeInvalidInput, "--write and --check are mutually exclusive")
			}
			return c.runFmt(cmd, manifestArg(args), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the result back to the file")
	cmd.Flags().BoolVar(&opts.check, "check", false, "fail if the file is not canonical")

	return cmd
}

func (c *CLI) runFmt(cmd *cobra.Command, path string, opts fmtOpts) error {
	var original []byte
	var err error
	if path == "-" {
		var buf bytes.Buffer
		_, err = buf.ReadFrom(cmd.InOrStdin())
		original = buf.Bytes()
	} else {
		original, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest not found: %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}

	m, err := pipfile.ParseBytes(original)
	if err != nil {
		return err
	}
	formatted, err := pipfile.Marshal(m)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case opts.check:
		if !bytes.Equal(original, formatted) {
			printWarning(w, "%s is not formatted", path)
			return fail("%s is not formatted", path)
		}
		printSuccess(w, "%s is formatted", path)
	case opts.write && path != "-":
		if bytes.Equal(original, formatted) {
			loggerFromContext(cmd.Context()).Debug("already formatted", "path", path)
			return nil
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(path, formatted, mode); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		printSuccess(w, "Formatted %s", path)
	default:
		_, err = w.Write(formatted)
		return err
	}
	return nil
}
