package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pipspec/pkg/errors"
	"github.com/matzehuels/pipspec/pkg/pipfile"
)

type showOpts struct {
	group  string
	format string
}

func (c *CLI) showCommand() *cobra.Command {
	var opts showOpts

	cmd := &cobra.Command{
		Use:   "show [Pipfile]",
		Short: "Print the sources and requirements of a Pipfile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format, formatText, formatJSON, formatYAML, formatTOML); err != nil {
				return err
			}
			if opts.group != "" && opts.group != pipfile.GroupPackages && opts.group != pipfile.GroupDevPackages {
				return errors.New(errors.ErrCodeInvalidInput, "unknown group %q (want %s or %s)",
					opts.group, pipfile.GroupPackages, pipfile.GroupDevPackages)
			}
			m, err := readManifest(cmd, manifestArg(args))
			if err != nil {
				return err
			}
			return showManifest(cmd.OutOrStdout(), selectGroup(m, opts.group), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "only show one group: packages or dev-packages")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, json, yaml or toml")

	return cmd
}

// selectGroup returns a copy of m without the groups other than group.
func selectGroup(m *pipfile.Manifest, group string) *pipfile.Manifest {
	out := *m
	switch group {
	case pipfile.GroupPackages:
		out.DevPackages = nil
	case pipfile.GroupDevPackages:
		out.Packages = nil
	}
	return &out
}

func showManifest(w io.Writer, m *pipfile.Manifest, opts showOpts) error {
	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return pipfile.Write(w, m)
	}

	if len(m.Sources) > 0 {
		printTitle(w, "Sources")
		for _, s := range m.Sources {
			url := s.URL
			if !s.VerifySSL {
				url += StyleWarning.Render(" (verify_ssl = false)")
			}
			printKeyValue(w, s.Name, url)
		}
		printNewline(w)
	}
	for _, group := range pipfile.Groups {
		if opts.group != "" && group != opts.group {
			continue
		}
		reqs := m.Group(group)
		printTitle(w, fmt.Sprintf("%s (%d)", group, len(reqs)))
		for _, r := range reqs {
			printKeyValue(w, r.Name, describeRequirement(r))
		}
		printNewline(w)
	}
	if !m.Requires.IsZero() {
		printTitle(w, "Requires")
		if m.Requires.PythonVersion != "" {
			printKeyValue(w, "python", m.Requires.PythonVersion)
		}
		if m.Requires.PythonFullVersion != "" {
			printKeyValue(w, "python (full)", m.Requires.PythonFullVersion)
		}
	}
	return nil
}

// describeRequirement renders a one-line summary of r.
func describeRequirement(r pipfile.Requirement) string {
	var s string
	switch {
	case r.IsVCS():
		s = "git " + r.Git
		if r.Ref != "" {
			s += "@" + r.Ref
		}
	case r.Path != "":
		s = "path " + r.Path
	case r.File != "":
		s = "file " + r.File
	default:
		s = r.Version
		if s == "" {
			s = "*"
		}
	}
	if len(r.Extras) > 0 {
		s += fmt.Sprintf(" %v", r.Extras)
	}
	if r.Index != "" {
		s += " from " + r.Index
	}
	if r.Markers != "" {
		s += "; " + r.Markers
	}
	if r.Editable {
		s += " (editable)"
	}
	return s
}
