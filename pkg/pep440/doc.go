// Package pep440 implements Python version identifiers and version
// specifiers as defined by PEP 440.
//
// # Versions
//
// [ParseVersion] accepts every spelling PEP 440 allows and normalises it:
//
//	v, _ := pep440.ParseVersion("V1.0-Alpha.1")
//	fmt.Println(v) // 1.0a1
//
// Versions order by epoch, release (trailing zeros ignored), then
// dev < pre < final < post, with local labels sorting after the public
// version they decorate. See [Compare].
//
// # Specifiers
//
// A [SpecifierSet] is the constraint string of a Pipfile entry, e.g.
// "~=1.16" or ">=2,<3,!=2.1.*". The special value "*" admits everything.
//
//	set, _ := pep440.ParseSpecifierSet("~=1.16")
//	set.Contains(pep440.MustParseVersion("1.18.2"), false) // true
//	set.Contains(pep440.MustParseVersion("2.0.0"), false)  // false
//
// The compatible release operator keeps the standard meaning: "~=1.16" is
// ">=1.16, ==1.*", while "~=1.16.0" is ">=1.16.0, ==1.16.*".
//
// # Pre-releases
//
// Pre-releases and development releases are excluded unless the caller opts
// in or a clause names one explicitly (">=2.0b1"). [SpecifierSet.Filter]
// falls back to matching pre-releases when no final release qualifies.
package pep440
