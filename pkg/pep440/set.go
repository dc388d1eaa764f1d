package pep440

import (
	"slices"
	"strings"

	"github.com/matzehuels/pipspec/pkg/errors"
)

// Any is the Pipfile spelling of an unconstrained requirement.
const Any = "*"

// SpecifierSet is a conjunction of clauses, e.g. ">=1.2,<2,!=1.5.*".
// The zero value admits every final release.
type SpecifierSet struct {
	specs []Specifier
}

// ParseSpecifierSet parses a comma-separated list of clauses. The empty
// string and [Any] both yield the unconstrained set.
func ParseSpecifierSet(s string) (SpecifierSet, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == Any {
		return SpecifierSet{}, nil
	}
	var set SpecifierSet
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			return SpecifierSet{}, errors.New(errors.ErrCodeInvalidConstraint, "empty clause in %q", s)
		}
		spec, err := ParseSpecifier(part)
		if err != nil {
			return SpecifierSet{}, err
		}
		set.specs = append(set.specs, spec)
	}
	return set, nil
}

// MustParseSpecifierSet is like ParseSpecifierSet but panics on error.
func MustParseSpecifierSet(s string) SpecifierSet {
	set, err := ParseSpecifierSet(s)
	if err != nil {
		panic(err)
	}
	return set
}

// IsAny reports whether the set places no constraint on the version.
func (s SpecifierSet) IsAny() bool { return len(s.specs) == 0 }

// Specifiers returns the clauses in the order they were written.
func (s SpecifierSet) Specifiers() []Specifier { return slices.Clone(s.specs) }

// String renders the clauses in their original order, or [Any].
func (s SpecifierSet) String() string {
	if s.IsAny() {
		return Any
	}
	parts := make([]string, len(s.specs))
	for i, spec := range s.specs {
		parts[i] = spec.String()
	}
	return strings.Join(parts, ",")
}

// Canonical renders the clauses sorted, so that sets differing only in
// clause order produce the same string.
func (s SpecifierSet) Canonical() string {
	if s.IsAny() {
		return Any
	}
	parts := make([]string, len(s.specs))
	for i, spec := range s.specs {
		parts[i] = spec.String()
	}
	slices.Sort(parts)
	return strings.Join(slices.Compact(parts), ",")
}

// Pinned returns the version of a set consisting of a single exact "=="
// clause.
func (s SpecifierSet) Pinned() (Version, bool) {
	if len(s.specs) != 1 || s.specs[0].Op != OpEqual || s.specs[0].Wildcard {
		return Version{}, false
	}
	return s.specs[0].Version, true
}

// AllowsPrereleases reports whether any clause names a pre-release, which
// opts the set into pre-releases.
func (s SpecifierSet) AllowsPrereleases() bool {
	return slices.ContainsFunc(s.specs, Specifier.NamesPrerelease)
}

// Contains reports whether v satisfies every clause. Pre-releases are
// rejected unless prereleases is true or the set itself names one.
func (s SpecifierSet) Contains(v Version, prereleases bool) bool {
	if v.IsPrerelease() && !prereleases && !s.AllowsPrereleases() {
		return false
	}
	for _, spec := range s.specs {
		if !spec.Admits(v) {
			return false
		}
	}
	return true
}

// Check parses raw and reports whether it satisfies the set.
func (s SpecifierSet) Check(raw string, prereleases bool) (bool, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return false, err
	}
	return s.Contains(v, prereleases), nil
}

// Filter returns the versions admitted by the set, preserving order. When
// pre-releases are not allowed and only pre-releases match, those are
// returned instead of nothing, mirroring pip's fallback.
func (s SpecifierSet) Filter(vs []Version, prereleases bool) []Version {
	allow := prereleases || s.AllowsPrereleases()
	var finals, pres []Version
	for _, v := range vs {
		if !s.Contains(v, true) {
			continue
		}
		if v.IsPrerelease() && !allow {
			pres = append(pres, v)
			continue
		}
		finals = append(finals, v)
	}
	if len(finals) == 0 && !allow {
		return pres
	}
	return finals
}

// Best returns the highest version admitted by the set.
func (s SpecifierSet) Best(vs []Version, prereleases bool) (Version, bool) {
	return Max(s.Filter(vs, prereleases))
}
