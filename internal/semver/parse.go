package semver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cratestats/cargo-tally/internal/arena"
)

// ParseReq parses a Cargo requirement string: comma-separated comparators,
// each an optional operator followed by a possibly partial version. A bare
// version defaults to caret semantics. Strings that fail parsing are
// retried through the historical alias table.
func ParseReq(s string) (VersionReq, error) {
	req, err := parseReq(s)
	if err != nil {
		corrected, ok := reqAlias[strings.TrimSpace(s)]
		if !ok {
			return VersionReq{}, err
		}
		req, err = parseReq(corrected)
		if err != nil {
			return VersionReq{}, err
		}
	}
	return req, nil
}

func parseReq(s string) (VersionReq, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || isWildcard(trimmed) {
		return StarReq, nil
	}

	var comparators []Comparator
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return VersionReq{}, fmt.Errorf("invalid requirement %q: empty comparator", s)
		}
		cmp, err := parseComparator(part)
		if err != nil {
			return VersionReq{}, fmt.Errorf("invalid requirement %q: %w", s, err)
		}
		comparators = append(comparators, cmp)
	}
	return VersionReq{Comparators: arena.New(comparators)}, nil
}

func parseComparator(s string) (Comparator, error) {
	var cmp Comparator
	explicit := true
	switch {
	case strings.HasPrefix(s, ">="):
		cmp.Op = OpGreaterEq
		s = s[2:]
	case strings.HasPrefix(s, "<="):
		cmp.Op = OpLessEq
		s = s[2:]
	case strings.HasPrefix(s, ">"):
		cmp.Op = OpGreater
		s = s[1:]
	case strings.HasPrefix(s, "<"):
		cmp.Op = OpLess
		s = s[1:]
	case strings.HasPrefix(s, "="):
		cmp.Op = OpExact
		s = s[1:]
	case strings.HasPrefix(s, "~"):
		cmp.Op = OpTilde
		s = s[1:]
	case strings.HasPrefix(s, "^"):
		cmp.Op = OpCaret
		s = s[1:]
	default:
		// A bare version requirement means caret in Cargo.
		cmp.Op = OpCaret
		explicit = false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return cmp, fmt.Errorf("missing version after operator")
	}

	// Strip build metadata; it never participates in matching.
	if plus := strings.IndexByte(s, '+'); plus >= 0 {
		s = s[:plus]
	}
	if dash := strings.IndexByte(s, '-'); dash >= 0 {
		cmp.Pre = s[dash+1:]
		s = s[:dash]
		if cmp.Pre == "" {
			return cmp, fmt.Errorf("empty pre-release tag")
		}
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return cmp, fmt.Errorf("too many version components in %q", s)
	}
	for i, part := range parts {
		if isWildcard(part) {
			if explicit {
				return cmp, fmt.Errorf("wildcard component not allowed with an operator")
			}
			if i == 0 {
				return cmp, fmt.Errorf("wildcard major component")
			}
			if i+1 != len(parts) || cmp.Pre != "" {
				return cmp, fmt.Errorf("characters after wildcard in %q", s)
			}
			cmp.Op = OpWildcard
			return cmp, nil
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return cmp, fmt.Errorf("invalid version component %q", part)
		}
		switch i {
		case 0:
			cmp.Major = n
		case 1:
			cmp.Minor = n
			cmp.HasMinor = true
		case 2:
			cmp.Patch = n
			cmp.HasPatch = true
		}
	}
	if cmp.Pre != "" && !cmp.HasPatch {
		return cmp, fmt.Errorf("pre-release tag on a partial version")
	}
	return cmp, nil
}

func isWildcard(s string) bool {
	return s == "*" || s == "x" || s == "X"
}
