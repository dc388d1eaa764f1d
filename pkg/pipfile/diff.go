package pipfile

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/pipspec/pkg/pep440"
)

// ChangeKind classifies a [Change].
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
	Changed ChangeKind = "changed"
)

// Change is one difference between two manifests. Group is "source" for
// index changes, "extra" for top-level keys outside the schema, otherwise
// the dependency group.
type Change struct {
	Group string     `json:"group" yaml:"group"`
	Name  string     `json:"name" yaml:"name"`
	Kind  ChangeKind `json:"kind" yaml:"kind"`
	Old   string     `json:"old,omitempty" yaml:"old,omitempty"`
	New   string     `json:"new,omitempty" yaml:"new,omitempty"`
}

// Diff compares two manifests independent of key order and name spelling.
// Requirements are matched by normalised name and compared by their
// canonical constraint, so "numpy = '>=1,<2'" equals "NumPy = '<2, >=1'".
// Changes are listed per group: removals and changes in the order of a,
// then additions in the order of b.
func Diff(a, b *Manifest) []Change {
	var changes []Change
	changes = append(changes, diffSources(a.Sources, b.Sources)...)
	for _, group := range Groups {
		changes = append(changes, diffGroup(group, a.Group(group), b.Group(group))...)
	}
	changes = append(changes, diffExtra(a.Extra, b.Extra)...)
	return changes
}

// Equivalent reports whether two manifests declare the same sources, the
// same requirements and the same extra sections.
func Equivalent(a, b *Manifest) bool { return len(Diff(a, b)) == 0 }

func diffSources(a, b []Source) []Change {
	var changes []Change
	bByName := make(map[string]Source, len(b))
	for _, s := range b {
		bByName[s.Name] = s
	}
	aNames := make(map[string]bool, len(a))
	for _, s := range a {
		aNames[s.Name] = true
		other, ok := bByName[s.Name]
		switch {
		case !ok:
			changes = append(changes, Change{Group: "source", Name: s.Name, Kind: Removed, Old: sourceSignature(s)})
		case sourceSignature(s) != sourceSignature(other):
			changes = append(changes, Change{Group: "source", Name: s.Name, Kind: Changed, Old: sourceSignature(s), New: sourceSignature(other)})
		}
	}
	for _, s := range b {
		if !aNames[s.Name] {
			changes = append(changes, Change{Group: "source", Name: s.Name, Kind: Added, New: sourceSignature(s)})
		}
	}
	return changes
}

func sourceSignature(s Source) string {
	sig := s.URL
	if !s.VerifySSL {
		sig += " (verify_ssl=false)"
	}
	if len(s.Other) > 0 {
		sig += " " + value(s.Other)
	}
	return sig
}

func diffExtra(a, b []Setting) []Change {
	var changes []Change
	bByKey := make(map[string]string, len(b))
	for _, x := range b {
		bByKey[x.Key] = extraSignature(x.Value)
	}
	aKeys := make(map[string]bool, len(a))
	for _, x := range a {
		aKeys[x.Key] = true
		sig := extraSignature(x.Value)
		other, ok := bByKey[x.Key]
		switch {
		case !ok:
			changes = append(changes, Change{Group: "extra", Name: x.Key, Kind: Removed, Old: sig})
		case sig != other:
			changes = append(changes, Change{Group: "extra", Name: x.Key, Kind: Changed, Old: sig, New: other})
		}
	}
	for _, x := range b {
		if !aKeys[x.Key] {
			changes = append(changes, Change{Group: "extra", Name: x.Key, Kind: Added, New: extraSignature(x.Value)})
		}
	}
	return changes
}

// extraSignature renders a kept value independent of table key order.
func extraSignature(v any) string {
	if settings, ok := v.([]Setting); ok {
		table := make(map[string]any, len(settings))
		for _, s := range settings {
			table[s.Key] = s.Value
		}
		return value(table)
	}
	return value(v)
}

func diffGroup(group string, a, b []Requirement) []Change {
	var changes []Change
	bByName := make(map[string]Requirement, len(b))
	for _, r := range b {
		bByName[r.NormalizedName()] = r
	}
	aNames := make(map[string]bool, len(a))
	for _, r := range a {
		norm := r.NormalizedName()
		aNames[norm] = true
		other, ok := bByName[norm]
		switch {
		case !ok:
			changes = append(changes, Change{Group: group, Name: r.Name, Kind: Removed, Old: signature(r)})
		case signature(r) != signature(other):
			changes = append(changes, Change{Group: group, Name: other.Name, Kind: Changed, Old: signature(r), New: signature(other)})
		}
	}
	for _, r := range b {
		if !aNames[r.NormalizedName()] {
			changes = append(changes, Change{Group: group, Name: r.Name, Kind: Added, New: signature(r)})
		}
	}
	return changes
}

// signature is a canonical one-line rendering of everything that affects
// what a requirement installs.
func signature(r Requirement) string {
	constraint := r.Version
	if set, err := pep440.ParseSpecifierSet(r.Version); err == nil {
		constraint = set.Canonical()
	}
	parts := []string{constraint}
	if len(r.Extras) > 0 {
		extras := make([]string, len(r.Extras))
		for i, e := range r.Extras {
			extras[i] = NormalizeName(e)
		}
		slices.Sort(extras)
		extras = slices.Compact(extras)
		parts = append(parts, "extras="+strings.Join(extras, ","))
	}
	if r.Markers != "" {
		parts = append(parts, "markers="+strings.TrimSpace(r.Markers))
	}
	if r.Index != "" {
		parts = append(parts, "index="+r.Index)
	}
	if r.Git != "" {
		parts = append(parts, "git="+r.Git)
	}
	if r.Ref != "" {
		parts = append(parts, "ref="+r.Ref)
	}
	if r.Path != "" {
		parts = append(parts, "path="+r.Path)
	}
	if r.File != "" {
		parts = append(parts, "file="+r.File)
	}
	if r.Editable {
		parts = append(parts, "editable="+strconv.FormatBool(r.Editable))
	}
	for _, k := range sortedKeys(r.Other) {
		parts = append(parts, k+"="+value(r.Other[k]))
	}
	return strings.Join(parts, " ")
}
