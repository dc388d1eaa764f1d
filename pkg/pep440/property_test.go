package pep440

import (
	"testing"

	"pgregory.net/rapid"
)

func genVersion(finalOnly bool) *rapid.Generator[Version] {
	return rapid.Custom(func(t *rapid.T) Version {
		v := Version{
			Epoch:   rapid.IntRange(0, 2).Draw(t, "epoch") / 2,
			Release: rapid.SliceOfN(rapid.IntRange(0, 20), 1, 4).Draw(t, "release"),
		}
		if !finalOnly && rapid.Bool().Draw(t, "hasPre") {
			v.Pre = &Pre{
				Label: rapid.SampledFrom([]string{Alpha, Beta, ReleaseCandidate}).Draw(t, "preLabel"),
				Num:   rapid.IntRange(0, 5).Draw(t, "preNum"),
			}
		}
		if rapid.Bool().Draw(t, "hasPost") {
			n := rapid.IntRange(0, 5).Draw(t, "post")
			v.Post = &n
		}
		if !finalOnly && rapid.Bool().Draw(t, "hasDev") {
			n := rapid.IntRange(0, 5).Draw(t, "dev")
			v.Dev = &n
		}
		if !finalOnly && rapid.Bool().Draw(t, "hasLocal") {
			v.Local = rapid.SliceOfN(rapid.SampledFrom([]string{"1", "7", "abc", "ubuntu"}), 1, 3).Draw(t, "local")
		}
		return v
	})
}

func TestProperty_StringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := genVersion(false).Draw(t, "v")
		parsed, err := ParseVersion(v.String())
		if err != nil {
			t.Fatalf("ParseVersion(%q) error: %v", v.String(), err)
		}
		if parsed.String() != v.String() {
			t.Fatalf("round trip %q -> %q", v.String(), parsed.String())
		}
		if Compare(parsed, v) != 0 {
			t.Fatalf("Compare(parsed, original) != 0 for %q", v.String())
		}
	})
}

func TestProperty_CompareIsAntisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genVersion(false).Draw(t, "a")
		b := genVersion(false).Draw(t, "b")
		if Compare(a, b) != -Compare(b, a) {
			t.Fatalf("Compare(%s, %s) = %d but Compare(%s, %s) = %d", a, b, Compare(a, b), b, a, Compare(b, a))
		}
	})
}

func TestProperty_SortIsOrdered(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vs := rapid.SliceOfN(genVersion(false), 0, 20).Draw(t, "versions")
		Sort(vs)
		for i := 1; i < len(vs); i++ {
			if Compare(vs[i-1], vs[i]) > 0 {
				t.Fatalf("%s sorted before %s", vs[i-1], vs[i])
			}
		}
	})
}

// ~=X.Y admits exactly the final releases in [X.Y, X+1).
func TestProperty_CompatibleReleaseBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		release := rapid.SliceOfN(rapid.IntRange(0, 20), 2, 4).Draw(t, "spec")
		spec := Version{Release: release}
		set, err := ParseSpecifierSet("~=" + spec.String())
		if err != nil {
			t.Fatalf("ParseSpecifierSet error: %v", err)
		}

		upperRelease := append([]int(nil), release[:len(release)-2]...)
		upperRelease = append(upperRelease, release[len(release)-2]+1)
		upper := Version{Release: upperRelease}

		v := genVersion(true).Draw(t, "candidate")
		want := Compare(v, spec) >= 0 && Compare(v, upper) < 0
		if got := set.Contains(v, false); got != want {
			t.Fatalf("~=%s contains %s = %v, want %v (upper bound %s)", spec, v, got, want, upper)
		}
	})
}
