package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/pipspec/pkg/errors"
)

// versionPattern is the PEP 440 appendix B grammar, including the permitted
// spelling variations that normalise to the canonical form.
const versionPattern = `v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_\.]?(?P<pre_l>alpha|a|beta|b|preview|pre|c|rc)[-_\.]?(?P<pre_n>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_\.]?(?P<post_l>post|rev|r)[-_\.]?(?P<post_n2>[0-9]+)?))?` +
	`(?P<dev>[-_\.]?(?P<dev_l>dev)[-_\.]?(?P<dev_n>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?`

var (
	versionRE  = regexp.MustCompile(`(?i)^\s*` + versionPattern + `\s*$`)
	localSepRE = regexp.MustCompile(`[-_\.]`)
)

// Pre-release labels in canonical spelling, ordered a < b < rc.
const (
	Alpha            = "a"
	Beta             = "b"
	ReleaseCandidate = "rc"
)

var preLabels = map[string]string{
	"a": Alpha, "alpha": Alpha,
	"b": Beta, "beta": Beta,
	"c": ReleaseCandidate, "rc": ReleaseCandidate, "pre": ReleaseCandidate, "preview": ReleaseCandidate,
}

var preRank = map[string]int{Alpha: 0, Beta: 1, ReleaseCandidate: 2}

// Pre is a pre-release segment such as "rc1".
type Pre struct {
	Label string // One of Alpha, Beta, ReleaseCandidate
	Num   int
}

// Version is a parsed PEP 440 version.
//
// The zero Version is not valid; obtain values through [ParseVersion] or
// [MustParseVersion]. Versions are immutable after parsing and safe to share.
type Version struct {
	Epoch   int
	Release []int
	Pre     *Pre
	Post    *int
	Dev     *int
	Local   []string
}

// ParseVersion parses s according to PEP 440, accepting the alternative
// spellings the standard allows (leading "v", "alpha", "-1" post releases,
// "_" separators, ...). The returned Version always renders in canonical form.
func ParseVersion(s string) (Version, error) {
	m := versionRE.FindStringSubmatch(s)
	if m == nil {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "invalid version %q", s)
	}
	group := func(name string) string { return m[versionRE.SubexpIndex(name)] }

	var v Version
	var err error
	if e := group("epoch"); e != "" {
		if v.Epoch, err = atoi(e); err != nil {
			return Version{}, versionErr(s, err)
		}
	}
	for _, part := range strings.Split(group("release"), ".") {
		n, err := atoi(part)
		if err != nil {
			return Version{}, versionErr(s, err)
		}
		v.Release = append(v.Release, n)
	}
	if l := group("pre_l"); l != "" {
		n, err := optionalNum(group("pre_n"))
		if err != nil {
			return Version{}, versionErr(s, err)
		}
		v.Pre = &Pre{Label: preLabels[strings.ToLower(l)], Num: n}
	}
	if group("post") != "" {
		raw := group("post_n1")
		if raw == "" {
			raw = group("post_n2")
		}
		n, err := optionalNum(raw)
		if err != nil {
			return Version{}, versionErr(s, err)
		}
		v.Post = &n
	}
	if group("dev_l") != "" {
		n, err := optionalNum(group("dev_n"))
		if err != nil {
			return Version{}, versionErr(s, err)
		}
		v.Dev = &n
	}
	if l := group("local"); l != "" {
		v.Local = localSepRE.Split(strings.ToLower(l), -1)
	}
	return v, nil
}

// MustParseVersion is like ParseVersion but panics on error. Intended for
// tests and package-level constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical PEP 440 representation.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(v.Public())
	if len(v.Local) > 0 {
		b.WriteByte('+')
		b.WriteString(strings.Join(v.Local, "."))
	}
	return b.String()
}

// Public returns the canonical form without the local version label.
func (v Version) Public() string {
	var b strings.Builder
	b.WriteString(v.BaseVersion())
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Label, v.Pre.Num)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	return b.String()
}

// BaseVersion returns epoch and release only, e.g. "1!2.0" for "1!2.0rc1+x".
func (v Version) BaseVersion() string {
	var b strings.Builder
	if v.Epoch != 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// IsPrerelease reports whether v is a pre-release or a development release.
func (v Version) IsPrerelease() bool { return v.Pre != nil || v.Dev != nil }

// IsPostrelease reports whether v carries a post-release segment.
func (v Version) IsPostrelease() bool { return v.Post != nil }

// IsDevrelease reports whether v carries a development segment.
func (v Version) IsDevrelease() bool { return v.Dev != nil }

// IsLocal reports whether v has a local version label.
func (v Version) IsLocal() bool { return len(v.Local) > 0 }

// WithoutLocal returns a copy of v with the local label dropped.
func (v Version) WithoutLocal() Version {
	v.Local = nil
	return v
}

// base returns a copy of v reduced to epoch and release.
func (v Version) base() Version {
	return Version{Epoch: v.Epoch, Release: v.Release}
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to
// or after w under PEP 440 ordering.
func (v Version) Compare(w Version) int { return Compare(v, w) }

// Equal reports whether v and w are the same version (1.0 == 1.0.0).
func (v Version) Equal(w Version) bool { return Compare(v, w) == 0 }

// LessThan reports whether v sorts before w.
func (v Version) LessThan(w Version) bool { return Compare(v, w) < 0 }

// GreaterThan reports whether v sorts after w.
func (v Version) GreaterThan(w Version) bool { return Compare(v, w) > 0 }

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("numeric component %q out of range", s)
	}
	return n, nil
}

func optionalNum(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return atoi(s)
}

func versionErr(s string, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidVersion, err, "invalid version %q", s)
}
