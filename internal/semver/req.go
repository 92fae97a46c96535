package semver

import (
	"strconv"
	"strings"

	"github.com/cratestats/cargo-tally/internal/arena"
)

// Op is a comparator operator.
type Op uint8

const (
	OpExact Op = iota
	OpGreater
	OpGreaterEq
	OpLess
	OpLessEq
	OpTilde
	OpCaret
	OpWildcard
)

// Comparator is a single requirement clause. Minor and Patch are valid only
// when the corresponding Has flag is set; a missing component widens the
// accepted range.
type Comparator struct {
	Op       Op
	Major    uint64
	Minor    uint64
	Patch    uint64
	HasMinor bool
	HasPatch bool
	Pre      string
}

// VersionReq is a conjunction of comparators. An empty comparator list is
// the bare `*` requirement.
type VersionReq struct {
	Comparators arena.Slice[Comparator]
}

// StarReq is the bare `*` requirement.
var StarReq = VersionReq{}

// Caret builds the requirement `^major.minor.patch`.
func Caret(major, minor, patch uint64) VersionReq {
	return VersionReq{Comparators: arena.Of(Comparator{
		Op:       OpCaret,
		Major:    major,
		Minor:    minor,
		Patch:    patch,
		HasMinor: true,
		HasPatch: true,
	})}
}

// Matches reports whether ver satisfies every comparator. A pre-release
// version additionally requires some comparator with the same
// major.minor.patch and a non-empty pre-release tag, mirroring Cargo.
func (r VersionReq) Matches(ver Version) bool {
	for _, cmp := range r.Comparators.Items() {
		if !cmp.matches(ver) {
			return false
		}
	}

	if ver.Pre() == "" {
		return true
	}

	for _, cmp := range r.Comparators.Items() {
		if cmp.preCompatible(ver) {
			return true
		}
	}

	return false
}

func (c Comparator) matches(ver Version) bool {
	switch c.Op {
	case OpExact, OpWildcard:
		return c.matchesExact(ver)
	case OpGreater:
		return c.matchesGreater(ver)
	case OpGreaterEq:
		return c.matchesExact(ver) || c.matchesGreater(ver)
	case OpLess:
		return c.matchesLess(ver)
	case OpLessEq:
		return c.matchesExact(ver) || c.matchesLess(ver)
	case OpTilde:
		return c.matchesTilde(ver)
	case OpCaret:
		return c.matchesCaret(ver)
	}
	return false
}

func (c Comparator) matchesExact(ver Version) bool {
	if ver.Major() != c.Major {
		return false
	}
	if c.HasMinor && ver.Minor() != c.Minor {
		return false
	}
	if c.HasPatch && ver.Patch() != c.Patch {
		return false
	}
	return ver.Pre() == c.Pre
}

func (c Comparator) matchesGreater(ver Version) bool {
	if ver.Major() != c.Major {
		return ver.Major() > c.Major
	}
	if !c.HasMinor {
		return false
	}
	if ver.Minor() != c.Minor {
		return ver.Minor() > c.Minor
	}
	if !c.HasPatch {
		return false
	}
	if ver.Patch() != c.Patch {
		return ver.Patch() > c.Patch
	}
	return comparePrerelease(ver.Pre(), c.Pre) > 0
}

func (c Comparator) matchesLess(ver Version) bool {
	if ver.Major() != c.Major {
		return ver.Major() < c.Major
	}
	if !c.HasMinor {
		return false
	}
	if ver.Minor() != c.Minor {
		return ver.Minor() < c.Minor
	}
	if !c.HasPatch {
		return false
	}
	if ver.Patch() != c.Patch {
		return ver.Patch() < c.Patch
	}
	return comparePrerelease(ver.Pre(), c.Pre) < 0
}

func (c Comparator) matchesTilde(ver Version) bool {
	if ver.Major() != c.Major {
		return false
	}
	if c.HasMinor && ver.Minor() != c.Minor {
		return false
	}
	if c.HasPatch && ver.Patch() != c.Patch {
		return ver.Patch() > c.Patch
	}
	return comparePrerelease(ver.Pre(), c.Pre) >= 0
}

func (c Comparator) matchesCaret(ver Version) bool {
	if ver.Major() != c.Major {
		return false
	}

	if !c.HasMinor {
		return true
	}

	if !c.HasPatch {
		if c.Major > 0 {
			return ver.Minor() >= c.Minor
		}
		return ver.Minor() == c.Minor
	}

	if c.Major > 0 {
		if ver.Minor() != c.Minor {
			return ver.Minor() > c.Minor
		} else if ver.Patch() != c.Patch {
			return ver.Patch() > c.Patch
		}
	} else if c.Minor > 0 {
		if ver.Minor() != c.Minor {
			return false
		} else if ver.Patch() != c.Patch {
			return ver.Patch() > c.Patch
		}
	} else if ver.Minor() != c.Minor || ver.Patch() != c.Patch {
		return false
	}

	return comparePrerelease(ver.Pre(), c.Pre) >= 0
}

// preCompatible reports whether the comparator unlocks pre-release versions
// of its exact major.minor.patch triple.
func (c Comparator) preCompatible(ver Version) bool {
	return c.Major == ver.Major() &&
		c.HasMinor && c.Minor == ver.Minor() &&
		c.HasPatch && c.Patch == ver.Patch() &&
		c.Pre != ""
}

func (c Comparator) String() string {
	var b strings.Builder
	switch c.Op {
	case OpExact:
		b.WriteString("=")
	case OpGreater:
		b.WriteString(">")
	case OpGreaterEq:
		b.WriteString(">=")
	case OpLess:
		b.WriteString("<")
	case OpLessEq:
		b.WriteString("<=")
	case OpTilde:
		b.WriteString("~")
	case OpCaret:
		b.WriteString("^")
	}
	b.WriteString(strconv.FormatUint(c.Major, 10))
	if c.HasMinor {
		b.WriteString(".")
		b.WriteString(strconv.FormatUint(c.Minor, 10))
		if c.HasPatch {
			b.WriteString(".")
			b.WriteString(strconv.FormatUint(c.Patch, 10))
		} else if c.Op == OpWildcard {
			b.WriteString(".*")
		}
	} else if c.Op == OpWildcard {
		b.WriteString(".*")
	}
	if c.Pre != "" {
		b.WriteString("-")
		b.WriteString(c.Pre)
	}
	return b.String()
}

// String renders the requirement in canonical form; the canonical form is
// also the resolver's grouping key.
func (r VersionReq) String() string {
	if r.Comparators.IsEmpty() {
		return "*"
	}
	parts := make([]string, 0, r.Comparators.Len())
	for _, cmp := range r.Comparators.Items() {
		parts = append(parts, cmp.String())
	}
	return strings.Join(parts, ", ")
}
