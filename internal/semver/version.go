// Package semver implements the crates.io version and requirement model
// with Cargo's matching rules.
//
// Version parsing and precedence delegate to github.com/Masterminds/semver.
// Requirement matching is implemented here: Cargo's operators distinguish a
// missing minor or patch component from an explicit zero (`>1.2` and
// `>1.2.0` accept different sets), and a caret requirement on a 0.x series
// pins the minor component. Neither rule is representable through
// Masterminds' constraint API, so comparators are parsed and matched in
// this package while the version value type stays library-backed.
package semver

import (
	"fmt"

	mm "github.com/Masterminds/semver/v3"
)

var zeroVersion = mm.New(0, 0, 0, "", "")

// Version is an immutable semver version. The zero value is 0.0.0.
type Version struct {
	v *mm.Version
}

// New constructs a version with no pre-release tag.
func New(major, minor, patch uint64) Version {
	return Version{v: mm.New(major, minor, patch, "", "")}
}

// NewPre constructs a version carrying a pre-release tag.
func NewPre(major, minor, patch uint64, pre string) Version {
	return Version{v: mm.New(major, minor, patch, pre, "")}
}

// Parse parses a full version string. Strings that fail strict parsing are
// retried through the historical alias table before the error surfaces.
func Parse(s string) (Version, error) {
	v, err := mm.StrictNewVersion(s)
	if err != nil {
		corrected, ok := versionAlias[s]
		if !ok {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		v = mm.MustParse(corrected)
	}
	return Version{v: v}, nil
}

func (v Version) ref() *mm.Version {
	if v.v == nil {
		return zeroVersion
	}
	return v.v
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.ref().Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.ref().Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.ref().Patch() }

// Pre returns the pre-release tag, empty for stable versions.
func (v Version) Pre() string { return v.ref().Prerelease() }

// IsPrerelease reports whether the version carries a pre-release tag.
func (v Version) IsPrerelease() bool { return v.ref().Prerelease() != "" }

// Compare returns -1, 0, or 1. Pre-release identifiers order below the
// corresponding stable version per semver precedence.
func (v Version) Compare(o Version) int { return v.ref().Compare(o.ref()) }

// Less reports v < o in semver precedence.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports semver equality (build metadata ignored).
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

func (v Version) String() string { return v.ref().String() }

// comparePrerelease orders two pre-release tags per semver precedence,
// where the empty tag ranks above any non-empty tag.
func comparePrerelease(a, b string) int {
	if a == b {
		return 0
	}
	return mm.New(0, 0, 0, a, "").Compare(mm.New(0, 0, 0, b, ""))
}
