package pep440

import (
	"cmp"
	"slices"
	"strings"
)

// key is one comparable slot of the PEP 440 sort key. A slot is either
// negative infinity, a value, or positive infinity.
type key struct {
	inf  int // -1, 0 or +1
	a, b int
}

func (k key) compare(o key) int {
	if c := cmp.Compare(k.inf, o.inf); c != 0 || k.inf != 0 {
		return c
	}
	if c := cmp.Compare(k.a, o.a); c != 0 {
		return c
	}
	return cmp.Compare(k.b, o.b)
}

func preKey(v Version) key {
	switch {
	// dev releases of a final sort before its pre-releases: 1.0.dev0 < 1.0a0
	case v.Pre == nil && v.Post == nil && v.Dev != nil:
		return key{inf: -1}
	case v.Pre == nil:
		return key{inf: 1}
	default:
		return key{a: preRank[v.Pre.Label], b: v.Pre.Num}
	}
}

func postKey(v Version) key {
	if v.Post == nil {
		return key{inf: -1}
	}
	return key{a: *v.Post}
}

func devKey(v Version) key {
	if v.Dev == nil {
		return key{inf: 1}
	}
	return key{a: *v.Dev}
}

// trimmedRelease drops trailing zeros so that 1.0 and 1.0.0 compare equal.
func trimmedRelease(r []int) []int {
	i := len(r)
	for i > 1 && r[i-1] == 0 {
		i--
	}
	return r[:i]
}

// Compare orders two versions according to PEP 440.
func Compare(v, w Version) int {
	if c := cmp.Compare(v.Epoch, w.Epoch); c != 0 {
		return c
	}
	if c := slices.Compare(trimmedRelease(v.Release), trimmedRelease(w.Release)); c != 0 {
		return c
	}
	if c := preKey(v).compare(preKey(w)); c != 0 {
		return c
	}
	if c := postKey(v).compare(postKey(w)); c != 0 {
		return c
	}
	if c := devKey(v).compare(devKey(w)); c != 0 {
		return c
	}
	return compareLocal(v.Local, w.Local)
}

// compareLocal orders local labels: absent sorts first, numeric segments
// sort after alphanumeric ones, and a longer label wins on a shared prefix.
func compareLocal(a, b []string) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return -1
	case len(b) == 0:
		return 1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareLocalSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareLocalSegment(a, b string) int {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		return compareDigits(a, b)
	case an:
		return 1
	case bn:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// compareDigits compares decimal strings numerically without overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Sort orders versions ascending in place.
func Sort(vs []Version) {
	slices.SortStableFunc(vs, Compare)
}

// Max returns the highest version in vs, or false if vs is empty.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	return slices.MaxFunc(vs, Compare), true
}
