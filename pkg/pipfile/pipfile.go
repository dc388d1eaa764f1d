package pipfile

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/pipspec/pkg/pep440"
)

// Group names as they appear in a Pipfile.
const (
	GroupPackages    = "packages"
	GroupDevPackages = "dev-packages"
)

// Groups lists the dependency groups in file order.
var Groups = []string{GroupPackages, GroupDevPackages}

const (
	DefaultSourceName = "pypi"                    // Name pipenv gives the default index
	DefaultIndexURL   = "https://pypi.org/simple" // PyPI simple API root
)

// Source is a [[source]] entry: a package index the manifest may install from.
type Source struct {
	Name      string `json:"name" yaml:"name"`
	URL       string `json:"url" yaml:"url"`
	VerifySSL bool   `json:"verify_ssl" yaml:"verify_ssl"`

	Other map[string]any `json:"other,omitempty" yaml:"other,omitempty"` // keys pipspec does not model
}

// DefaultSource returns the PyPI source pipenv assumes when none is declared.
func DefaultSource() Source {
	return Source{Name: DefaultSourceName, URL: DefaultIndexURL, VerifySSL: true}
}

// Requirement is one entry of a dependency group.
//
// The common form is a name mapped to a constraint string (numpy = "~=1.16"),
// which leaves every field except Name and Version empty. Table entries
// (requests = {version = "*", extras = ["socks"]}) fill the other fields.
type Requirement struct {
	Name     string         `json:"name" yaml:"name"`
	Version  string         `json:"version,omitempty" yaml:"version,omitempty"`
	Extras   []string       `json:"extras,omitempty" yaml:"extras,omitempty"`
	Markers  string         `json:"markers,omitempty" yaml:"markers,omitempty"`
	Index    string         `json:"index,omitempty" yaml:"index,omitempty"`
	Git      string         `json:"git,omitempty" yaml:"git,omitempty"`
	Ref      string         `json:"ref,omitempty" yaml:"ref,omitempty"`
	Path     string         `json:"path,omitempty" yaml:"path,omitempty"`
	File     string         `json:"file,omitempty" yaml:"file,omitempty"`
	Editable bool           `json:"editable,omitempty" yaml:"editable,omitempty"`
	Other    map[string]any `json:"other,omitempty" yaml:"other,omitempty"` // keys pipspec does not model, kept for round trips
}

// IsSimple reports whether the entry can be written as name = "constraint".
func (r Requirement) IsSimple() bool {
	return len(r.Extras) == 0 && r.Markers == "" && r.Index == "" &&
		r.Git == "" && r.Ref == "" && r.Path == "" && r.File == "" &&
		!r.Editable && len(r.Other) == 0
}

// IsVCS reports whether the requirement is installed from a repository.
func (r Requirement) IsVCS() bool { return r.Git != "" }

// IsLocal reports whether the requirement points at a path or file.
func (r Requirement) IsLocal() bool { return r.Path != "" || r.File != "" }

// FromIndex reports whether the requirement is resolved against an index,
// as opposed to a VCS checkout or a local path.
func (r Requirement) FromIndex() bool { return !r.IsVCS() && !r.IsLocal() }

// Constraint returns the parsed version constraint. An empty version means
// any version.
func (r Requirement) Constraint() (pep440.SpecifierSet, error) {
	return pep440.ParseSpecifierSet(r.Version)
}

// NormalizedName returns the PEP 503 form of the requirement's name.
func (r Requirement) NormalizedName() string { return NormalizeName(r.Name) }

// Script is a [scripts] entry.
type Script struct {
	Name    string `json:"name" yaml:"name"`
	Command string `json:"command" yaml:"command"`
}

// Setting is a key/value pair of a free-form section such as [pipenv].
type Setting struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// Requires is the [requires] section.
type Requires struct {
	PythonVersion     string `json:"python_version,omitempty" yaml:"python_version,omitempty"`
	PythonFullVersion string `json:"python_full_version,omitempty" yaml:"python_full_version,omitempty"`

	Other map[string]any `json:"other,omitempty" yaml:"other,omitempty"` // keys pipspec does not model
}

// IsZero reports whether the section is empty.
func (r Requires) IsZero() bool {
	return r.PythonVersion == "" && r.PythonFullVersion == "" && len(r.Other) == 0
}

// Manifest is a parsed Pipfile.
//
// Entries keep the order in which they appear in the source file. A Manifest
// built in code is valid input for [Write] and [Validate]; it does not need to
// come from [Parse].
type Manifest struct {
	Sources     []Source      `json:"sources" yaml:"sources"`
	Packages    []Requirement `json:"packages" yaml:"packages"`
	DevPackages []Requirement `json:"dev_packages" yaml:"dev_packages"`
	Requires    Requires      `json:"requires,omitzero" yaml:"requires,omitempty"`
	Scripts     []Script      `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Pipenv      []Setting     `json:"pipenv,omitempty" yaml:"pipenv,omitempty"`
	// Extra holds top-level keys outside the Pipfile schema, such as custom
	// package categories, in file order. Tables are kept as []Setting so
	// their key order survives a rewrite.
	Extra []Setting `json:"extra,omitempty" yaml:"extra,omitempty"`

	// problems found while decoding values of the wrong type
	problems []Issue
}

// Group returns the requirements of the named group, or nil for an unknown
// group name.
func (m *Manifest) Group(name string) []Requirement {
	switch name {
	case GroupPackages:
		return m.Packages
	case GroupDevPackages:
		return m.DevPackages
	}
	return nil
}

// Lookup finds a requirement by name within a group. Names are compared in
// normalised form, so "Foo_Bar" finds "foo-bar".
func (m *Manifest) Lookup(group, name string) (Requirement, bool) {
	want := NormalizeName(name)
	for _, r := range m.Group(group) {
		if r.NormalizedName() == want {
			return r, true
		}
	}
	return Requirement{}, false
}

// Names returns the requirement names of a group in file order.
func (m *Manifest) Names(group string) []string {
	reqs := m.Group(group)
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Name
	}
	return names
}

// Source returns the declared source with the given name.
func (m *Manifest) Source(name string) (Source, bool) {
	i := slices.IndexFunc(m.Sources, func(s Source) bool { return s.Name == name })
	if i < 0 {
		return Source{}, false
	}
	return m.Sources[i], true
}

// IndexFor returns the source a requirement is fetched from: its explicit
// index, else the first declared source, else PyPI.
func (m *Manifest) IndexFor(r Requirement) Source {
	if r.Index != "" {
		if s, ok := m.Source(r.Index); ok {
			return s
		}
	}
	if len(m.Sources) > 0 {
		return m.Sources[0]
	}
	return DefaultSource()
}

// AllowPrereleases reports the [pipenv] allow_prereleases setting.
func (m *Manifest) AllowPrereleases() bool {
	for _, s := range m.Pipenv {
		if s.Key == "allow_prereleases" {
			b, _ := s.Value.(bool)
			return b
		}
	}
	return false
}

var nameSepRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName converts a package name to its PEP 503 canonical form:
// lowercase, with runs of "-", "_" and "." collapsed to a single "-".
func NormalizeName(name string) string {
	return nameSepRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
