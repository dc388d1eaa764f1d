package pep440

import (
	"strings"

	"github.com/matzehuels/pipspec/pkg/errors"
)

// Operator is a PEP 440 comparison operator.
type Operator string

// Supported operators. Longer operators must be matched first when parsing.
const (
	OpArbitrary    Operator = "==="
	OpCompatible   Operator = "~="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLessEqual    Operator = "<="
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpGreater      Operator = ">"
)

var operators = []Operator{
	OpArbitrary, OpCompatible, OpEqual, OpNotEqual,
	OpLessEqual, OpGreaterEqual, OpLess, OpGreater,
}

// Specifier is a single version clause such as ">=1.2" or "==1.4.*".
type Specifier struct {
	Op       Operator
	Version  Version // unset for OpArbitrary
	Wildcard bool    // "==X.*" or "!=X.*"
	raw      string  // operand text for OpArbitrary
}

// ParseSpecifier parses one clause. A bare version without an operator is
// rejected with a hint, since pip and pipenv treat it as a syntax error.
func ParseSpecifier(s string) (Specifier, error) {
	s = strings.TrimSpace(s)
	op, rest, ok := splitOperator(s)
	if !ok {
		if _, err := ParseVersion(s); err == nil {
			return Specifier{}, errors.New(errors.ErrCodeInvalidConstraint,
				"missing operator in %q (did you mean \"==%s\"?)", s, s)
		}
		return Specifier{}, errors.New(errors.ErrCodeInvalidConstraint, "invalid specifier %q", s)
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Specifier{}, errors.New(errors.ErrCodeInvalidConstraint, "specifier %q has no version", s)
	}

	spec := Specifier{Op: op}
	switch op {
	case OpArbitrary:
		if strings.ContainsAny(rest, " \t,;") {
			return Specifier{}, errors.New(errors.ErrCodeInvalidConstraint, "invalid arbitrary equality %q", s)
		}
		spec.raw = rest
		return spec, nil
	case OpEqual, OpNotEqual:
		if prefix, ok := strings.CutSuffix(rest, ".*"); ok {
			v, err := ParseVersion(prefix)
			if err != nil {
				return Specifier{}, constraintErr(s, err)
			}
			if v.Pre != nil || v.Post != nil || v.Dev != nil || v.IsLocal() {
				return Specifier{}, errors.New(errors.ErrCodeInvalidConstraint,
					"wildcard in %q is only allowed after the release segment", s)
			}
			spec.Version, spec.Wildcard = v, true
			return spec, nil
		}
	}

	v, err := ParseVersion(rest)
	if err != nil {
		return Specifier{}, constraintErr(s, err)
	}
	if v.IsLocal() && op != OpEqual && op != OpNotEqual {
		return Specifier{}, errors.New(errors.ErrCodeInvalidConstraint,
			"local version label not permitted with %s in %q", op, s)
	}
	if op == OpCompatible && len(v.Release) < 2 {
		return Specifier{}, errors.New(errors.ErrCodeInvalidConstraint,
			"compatible release %q needs at least two release segments", s)
	}
	spec.Version = v
	return spec, nil
}

func splitOperator(s string) (Operator, string, bool) {
	for _, op := range operators {
		if rest, ok := strings.CutPrefix(s, string(op)); ok {
			return op, rest, true
		}
	}
	return "", s, false
}

func constraintErr(s string, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidConstraint, err, "invalid specifier %q", s)
}

// String renders the clause in canonical form.
func (s Specifier) String() string {
	if s.Op == OpArbitrary {
		return string(s.Op) + s.raw
	}
	if s.Wildcard {
		return string(s.Op) + s.Version.String() + ".*"
	}
	return string(s.Op) + s.Version.String()
}

// NamesPrerelease reports whether the clause mentions a pre-release,
// which opts the whole set into pre-releases. Every operator except != counts,
// so "<2.0rc2" admits 2.0rc1 the way pip does.
func (s Specifier) NamesPrerelease() bool {
	switch s.Op {
	case OpEqual, OpLessEqual, OpGreaterEqual, OpCompatible, OpLess, OpGreater:
		return !s.Wildcard && s.Version.IsPrerelease()
	case OpArbitrary:
		v, err := ParseVersion(s.raw)
		return err == nil && v.IsPrerelease()
	}
	return false
}

// Admits reports whether v satisfies the clause, ignoring the pre-release
// policy which is applied by [SpecifierSet].
func (s Specifier) Admits(v Version) bool {
	switch s.Op {
	case OpArbitrary:
		return strings.EqualFold(v.String(), s.raw)
	case OpCompatible:
		prefix := s.Version.Release[:len(s.Version.Release)-1]
		return Compare(v.WithoutLocal(), s.Version) >= 0 && prefixMatch(v, s.Version.Epoch, prefix)
	case OpEqual:
		return s.equal(v)
	case OpNotEqual:
		return !s.equal(v)
	case OpLessEqual:
		return Compare(v.WithoutLocal(), s.Version) <= 0
	case OpGreaterEqual:
		return Compare(v.WithoutLocal(), s.Version) >= 0
	case OpLess:
		if Compare(v, s.Version) >= 0 {
			return false
		}
		// <3.1 must not admit 3.1.0rc1
		if !s.Version.IsPrerelease() && v.IsPrerelease() && Compare(v.base(), s.Version.base()) == 0 {
			return false
		}
		return true
	case OpGreater:
		if Compare(v, s.Version) <= 0 {
			return false
		}
		// >3.1 must not admit 3.1.post1 or 3.1+local
		if !s.Version.IsPostrelease() && v.IsPostrelease() && Compare(v.base(), s.Version.base()) == 0 {
			return false
		}
		if v.IsLocal() && Compare(v.base(), s.Version.base()) == 0 {
			return false
		}
		return true
	}
	return false
}

func (s Specifier) equal(v Version) bool {
	if s.Wildcard {
		return prefixMatch(v, s.Version.Epoch, s.Version.Release)
	}
	if s.Version.IsLocal() {
		return Compare(v, s.Version) == 0
	}
	return Compare(v.WithoutLocal(), s.Version) == 0
}

// prefixMatch compares the release of v, zero padded, with prefix.
func prefixMatch(v Version, epoch int, prefix []int) bool {
	if v.Epoch != epoch {
		return false
	}
	for i, want := range prefix {
		got := 0
		if i < len(v.Release) {
			got = v.Release[i]
		}
		if got != want {
			return false
		}
	}
	return true
}
